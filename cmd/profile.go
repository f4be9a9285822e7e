package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/intake"
	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/pipeline"
)

var (
	profileName  string
	profileURLs  []string
	profileDocs  []string
	profileText  string
	profileJob   string
	profileNoAI  bool
	profileFocus []string
	profileJSON  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile a single organization from its sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		orgName, sources, opts, err := profileInput()
		if err != nil {
			return err
		}

		draft, pipeErrs, err := env.Coordinator.Run(ctx, sources, opts)
		if err != nil {
			for _, pe := range pipeErrs {
				zap.L().Error("source failed",
					zap.String("source", pe.SourceID),
					zap.String("stage", string(pe.Stage)),
					zap.String("message", pe.Message),
				)
			}
			return eris.Wrap(err, "profile run")
		}

		zap.L().Info("profile complete",
			zap.String("org", orgName),
			zap.Float64("score", draft.ConfidenceScore),
			zap.Int("fields_populated", len(draft.PopulatedFields())),
			zap.Int("source_errors", len(pipeErrs)),
		)

		if profileJSON != "" {
			if err := writeDraftJSON(profileJSON, draft, pipeErrs); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(draft)
	},
}

// profileInput assembles the org name, source list and run options from
// either the --job file or the individual flags.
func profileInput() (string, []model.Source, pipeline.Options, error) {
	opts := defaultOptions()

	if profileJob != "" {
		job, err := intake.LoadJob(profileJob)
		if err != nil {
			return "", nil, opts, err
		}
		sources, err := job.Sources()
		if err != nil {
			return "", nil, opts, err
		}
		if len(sources) == 0 {
			return "", nil, opts, eris.Errorf("job %s has no sources", profileJob)
		}
		if job.Options.UseAI != nil {
			opts.UseAI = *job.Options.UseAI
		}
		opts.FocusHints = job.Options.FocusHints
		opts.OrgName = job.Name
		return job.Name, sources, opts, nil
	}

	sources, err := intake.Sources(profileURLs, profileDocs, profileText)
	if err != nil {
		return "", nil, opts, err
	}
	if len(sources) == 0 {
		return "", nil, opts, eris.New("at least one of --url, --doc or --text is required")
	}
	if profileNoAI {
		opts.UseAI = false
	}
	opts.FocusHints = profileFocus
	opts.OrgName = profileName
	return profileName, sources, opts, nil
}

func writeDraftJSON(path string, draft *model.ProfileDraft, pipeErrs []model.PipelineError) error {
	out := struct {
		Draft  *model.ProfileDraft   `json:"draft"`
		Errors []model.PipelineError `json:"errors,omitempty"`
	}{Draft: draft, Errors: pipeErrs}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal draft")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, fmt.Sprintf("write draft to %s", path))
	}
	return nil
}

func init() {
	profileCmd.Flags().StringVar(&profileName, "name", "", "organization name")
	profileCmd.Flags().StringSliceVar(&profileURLs, "url", nil, "source URL (repeatable)")
	profileCmd.Flags().StringSliceVar(&profileDocs, "doc", nil, "document path (repeatable)")
	profileCmd.Flags().StringVar(&profileText, "text", "", "free-form text source")
	profileCmd.Flags().StringVar(&profileJob, "job", "", "YAML job file (overrides the other source flags)")
	profileCmd.Flags().BoolVar(&profileNoAI, "no-ai", false, "skip the AI structuring layer")
	profileCmd.Flags().StringSliceVar(&profileFocus, "focus", nil, "focus hint for the AI layer (repeatable)")
	profileCmd.Flags().StringVar(&profileJSON, "json", "", "also write draft and errors to this file")
	rootCmd.AddCommand(profileCmd)
}
