package commands

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"steam-insights-backend/internal/bootstrap"
	"steam-insights-backend/internal/storedoctor"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor [appId]",
		Short: "Diagnose a live store page, or a draft with --name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			name, _ := cmd.Flags().GetString("name")
			if len(args) == 0 && name == "" {
				return errors.New("an appId or --name is required")
			}

			responseCache, err := c.cache()
			if err != nil {
				return err
			}
			var evaluator storedoctor.TextEvaluator
			if withLLM, _ := cmd.Flags().GetBool("llm"); withLLM {
				client, err := bootstrap.BuildLLM(cmd.Context(), c.cfg)
				if err != nil {
					return err
				}
				evaluator = storedoctor.NewLLMEvaluator(client)
			}
			svc := storedoctor.NewService(c.storeClient(cmd), responseCache, evaluator)

			if len(args) == 1 {
				diag, err := svc.Diagnose(cmd.Context(), args[0], lang)
				if err != nil {
					return err
				}
				return c.printJSON(diag)
			}

			draft, err := draftFromFlags(cmd, name, lang)
			if err != nil {
				return err
			}
			diag, err := svc.DiagnoseDraft(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return c.printJSON(diag)
		},
	}
	cmd.Flags().String("lang", "english", "Store language")
	cmd.Flags().Bool("llm", false, "Evaluate description text with the configured model")
	cmd.Flags().String("name", "", "Draft game name")
	cmd.Flags().StringSlice("tags", nil, "Draft tags")
	cmd.Flags().Int("screenshots", 0, "Draft screenshot count")
	cmd.Flags().Int("trailers", 0, "Draft trailer count")
	cmd.Flags().Int("languages", 1, "Draft supported language count")
	cmd.Flags().String("short", "", "Draft short description")
	cmd.Flags().String("description", "", "Draft description file (.txt, .pdf or .docx)")
	return cmd
}

func draftFromFlags(cmd *cobra.Command, name, lang string) (storedoctor.Draft, error) {
	tags, _ := cmd.Flags().GetStringSlice("tags")
	screenshots, _ := cmd.Flags().GetInt("screenshots")
	trailers, _ := cmd.Flags().GetInt("trailers")
	languages, _ := cmd.Flags().GetInt("languages")
	short, _ := cmd.Flags().GetString("short")
	descPath, _ := cmd.Flags().GetString("description")

	draft := storedoctor.Draft{
		Listing: storedoctor.Listing{
			Name:             name,
			Tags:             tags,
			ScreenshotCount:  screenshots,
			TrailerCount:     trailers,
			LanguageCount:    languages,
			ShortDescription: short,
			HasHeaderImage:   true,
		},
		Language: lang,
	}
	if descPath != "" {
		data, err := os.ReadFile(descPath)
		if err != nil {
			return storedoctor.Draft{}, err
		}
		draft.Description = data
		draft.FileName = filepath.Base(descPath)
	}
	return draft, nil
}
