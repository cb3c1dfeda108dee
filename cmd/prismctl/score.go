package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"prism-scoring/internal/domain"
	"prism-scoring/internal/repository"
	"prism-scoring/internal/scoring"
)

// answerFile es el formato de entrada de `prismctl score`.
type answerFile struct {
	SessionID    string               `json:"session_id"`
	Context      string               `json:"context"`
	StateIndex   float64              `json:"state_index"`
	Responses    []domain.Response    `json:"responses"`
	ForcedChoice *forcedChoiceSection `json:"forced_choice,omitempty"`
}

type forcedChoiceSection struct {
	Options []domain.ForcedChoiceOption `json:"options"`
	Answers []domain.ForcedChoiceAnswer `json:"answers"`
}

func newScoreCmd() *cobra.Command {
	var (
		input     string
		modelPath string
		storePath string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answer file and print the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var in answerFile
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}
			if in.SessionID == "" {
				in.SessionID = "local"
			}

			model, err := loadModel(modelPath)
			if err != nil {
				return err
			}
			engine := scoring.NewEngine(model)

			scoringIn := scoring.Input{
				Responses:  in.Responses,
				Context:    domain.ParseContext(in.Context),
				StateIndex: in.StateIndex,
			}
			if in.ForcedChoice != nil {
				fc := scoring.ScoreForcedChoice(in.ForcedChoice.Options, in.ForcedChoice.Answers)
				scoringIn.ForcedChoice = fc.Scores
				scoringIn.FCAnswered = fc.BlocksAnswered
			}
			result, err := engine.Score(scoringIn)
			if err != nil {
				return err
			}
			profile := engine.BuildProfile(in.SessionID, result)
			profile.UpdatedAt = time.Now().UTC()

			if storePath != "" {
				ctx := cmd.Context()
				if ctx == nil {
					ctx = context.Background()
				}
				store, err := repository.OpenSQLiteProfileRepository(ctx, storePath)
				if err != nil {
					return err
				}
				defer store.Close()
				if profile, err = store.Upsert(ctx, profile); err != nil {
					return fmt.Errorf("store profile: %w", err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), profile)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "answer file (JSON)")
	cmd.Flags().StringVar(&modelPath, "model", "", "scoring model YAML (default: built-in)")
	cmd.Flags().StringVar(&storePath, "store", "", "sqlite file to upsert the profile into")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newSimilarCmd() *cobra.Command {
	var (
		storePath string
		k         int
	)
	cmd := &cobra.Command{
		Use:   "similar <session-id>",
		Short: "List the nearest stored profiles by strength vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := repository.OpenSQLiteProfileRepository(ctx, storePath)
			if err != nil {
				return err
			}
			defer store.Close()
			out, err := store.Similar(ctx, args[0], k)
			if err != nil {
				return err
			}
			// La CLI es local: se muestran los ids de sesion.
			rows := make([]map[string]any, 0, len(out))
			for _, p := range out {
				rows = append(rows, map[string]any{
					"session_id": p.SessionID,
					"type_code":  p.TypeCode,
					"version":    p.Version,
					"distance":   p.Distance,
				})
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "profiles.db", "sqlite profile store")
	cmd.Flags().IntVarP(&k, "k", "k", 5, "number of neighbours")
	return cmd
}

func loadModel(path string) (*scoring.Model, error) {
	if path == "" {
		return scoring.DefaultModel(), nil
	}
	return scoring.LoadModelFile(path)
}
