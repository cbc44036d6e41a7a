package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tagscout/internal/gateway"
	"tagscout/internal/media"
	"tagscout/internal/services"
	"tagscout/internal/synthesis"
)

type lookupResult struct {
	Request media.SearchRequest `json:"request"`
	Found   bool                `json:"found"`
	Record  *synthesis.Record   `json:"record,omitempty"`
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var mediumFlag string
	var expanded bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup <title...>",
		Short: "Resolve one title against the configured providers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			medium, err := media.ParseMedium(mediumFlag)
			if err != nil {
				return err
			}
			req := media.SearchRequest{
				Medium:   medium,
				Query:    strings.Join(strings.Fields(strings.Join(args, " ")), " "),
				Expanded: expanded,
			}
			if req.Query == "" {
				return errors.New("title is required")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			components, err := bootstrapComponents(cfg, ctx.logger(cmd))
			if err != nil {
				return err
			}

			result := lookupResult{Request: req}
			entity, err := components.Engine.Resolve(cmd.Context(), req)
			switch {
			case errors.Is(err, services.ErrNotFound):
			case err != nil:
				return fmt.Errorf("lookup %s: %w", req, err)
			default:
				record, synthErr := synthesis.New().Synthesize(entity, req.Expanded)
				if synthErr != nil && !errors.Is(synthErr, services.ErrNotFound) {
					return synthErr
				}
				result.Record = record
				result.Found = record != nil
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if !result.Found {
				fmt.Fprintf(out, "No %s found for %q.\n", strings.ToLower(medium.Label()), req.Query)
				return nil
			}
			fmt.Fprintln(out, gateway.RenderRecord(result.Record))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mediumFlag, "medium", "m", string(media.Anime), "Medium to search: anime, manga or ln")
	cmd.Flags().BoolVarP(&expanded, "expanded", "e", false, "Include the description")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the record as JSON")
	return cmd
}
