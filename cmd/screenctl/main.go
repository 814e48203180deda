package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sojwal000/learning-screen/internal/audio"
	"github.com/sojwal000/learning-screen/internal/engine"
	"github.com/sojwal000/learning-screen/internal/logging"
	"github.com/sojwal000/learning-screen/internal/model"
	"github.com/sojwal000/learning-screen/internal/replay"
)

var (
	// Global flags
	configPath string
	verbose    bool
	strict     bool

	cfg    engine.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "screenctl",
	Short: "Screening engine for learning difference risk classification",
	Long: `screenctl runs recorded test submissions through feature extraction
and rule-based risk classification, trains the ML classifiers, and
manages versioned model artifacts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = engine.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if strict {
			cfg.Strict = true
		}
		logger, err = logging.NewLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// classifyCmd runs one submission file through the pipeline.
var classifyCmd = &cobra.Command{
	Use:   "classify [submission.json]",
	Short: "Classify a recorded test submission",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var (
	audioPath string
	noLog     bool
)

func runClassify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read submission: %w", err)
	}
	var sub engine.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return fmt.Errorf("parse submission: %w", err)
	}
	if audioPath != "" {
		clip, err := audio.LoadWAV(audioPath)
		if err != nil {
			return err
		}
		sub.Audio = &clip
	}

	var screenings *engine.ScreeningStore
	if !noLog {
		screenings, err = engine.NewScreeningStore(cfg.ScreeningDBPath)
		if err != nil {
			return err
		}
		defer screenings.Close()
	}

	eng := engine.NewEngine(engine.Options{Logger: logger, Screenings: screenings, Strict: cfg.Strict})
	cls, err := eng.ProcessSubmission(sub)
	if err != nil {
		return err
	}
	return printJSON(cls)
}

// trainCmd fits a classifier on a feature matrix and persists it.
var trainCmd = &cobra.Command{
	Use:   "train [data.json|data.csv]",
	Short: "Train a classifier and persist a new artifact version",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrain,
}

var (
	trainName string
	trainKind string
)

func runTrain(cmd *cobra.Command, args []string) error {
	X, y, err := loadTrainingData(args[0])
	if err != nil {
		return err
	}
	store, err := cfg.OpenArtifactStore()
	if err != nil {
		return err
	}
	kind := cfg.Training.Kind
	if trainKind != "" {
		kind = trainKind
	}
	result, err := model.NewTrainer(store).Train(X, y, model.TrainOptions{
		ModelName: trainName,
		Kind:      model.Kind(kind),
		TestSize:  cfg.Training.TestSize,
		Seed:      cfg.Training.Seed,
	})
	if err != nil {
		return err
	}
	logger.Info("model trained",
		zap.String("model", result.Meta.ModelName),
		zap.Int("version", result.Meta.Version),
		zap.Float64("accuracy", result.Meta.Metrics.Accuracy))
	return printJSON(result.Meta)
}

// modelsCmd lists persisted artifact versions.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List persisted model artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cfg.OpenArtifactStore()
		if err != nil {
			return err
		}
		metas, err := store.List()
		if err != nil {
			return err
		}
		for _, m := range metas {
			fmt.Printf("%s\tv%d\t%s\t%s\taccuracy=%.3f\n",
				m.ModelName, m.Version, m.Framework,
				m.TrainedAt.Format("2006-01-02 15:04:05"), m.Metrics.Accuracy)
		}
		return nil
	},
}

// replayCmd re-runs a recorded fixture and reports drift.
var replayCmd = &cobra.Command{
	Use:   "replay [fixture.json]",
	Short: "Replay a submission fixture and verify classifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture, err := replay.LoadFixture(args[0])
		if err != nil {
			return err
		}
		eng := engine.NewEngine(engine.Options{Logger: logger, Strict: fixture.Strict})
		results := replay.Replay(eng, fixture)
		for _, r := range results {
			switch {
			case r.Err != nil:
				fmt.Printf("%s\tERROR\t%v\n", r.SubmissionID, r.Err)
			case r.Match:
				fmt.Printf("%s\tOK\n", r.SubmissionID)
			default:
				fmt.Printf("%s\tMISMATCH\n", r.SubmissionID)
				for _, d := range r.Mismatches {
					fmt.Printf("\t%s\n", d)
				}
			}
		}
		s := replay.Summarize(results)
		fmt.Printf("replayed %d: %d ok, %d mismatched, %d failed\n",
			s.Total, s.Matches, s.Mismatches, s.Failures)
		if s.Mismatches > 0 || s.Failures > 0 {
			return fmt.Errorf("replay drift detected")
		}
		return nil
	},
}

// trainingFile is the JSON training input shape.
type trainingFile struct {
	Features [][]float64 `json:"features"`
	Labels   []int       `json:"labels"`
}

// loadTrainingData reads a feature matrix from JSON, or from CSV where
// the last column is the integer label.
func loadTrainingData(path string) ([][]float64, []int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read training data: %w", err)
	}
	if json.Valid(data) {
		var tf trainingFile
		if err := json.Unmarshal(data, &tf); err != nil {
			return nil, nil, fmt.Errorf("parse training data: %w", err)
		}
		return tf.Features, tf.Labels, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	var X [][]float64
	var y []int
	for i, row := range rows {
		if len(row) < 2 {
			return nil, nil, fmt.Errorf("csv row %d: need features and a label", i+1)
		}
		feats := make([]float64, len(row)-1)
		skip := false
		for j, cell := range row[:len(row)-1] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				if i == 0 {
					skip = true // header row
					break
				}
				return nil, nil, fmt.Errorf("csv row %d col %d: %w", i+1, j+1, err)
			}
			feats[j] = v
		}
		if skip {
			continue
		}
		label, err := strconv.Atoi(row[len(row)-1])
		if err != nil {
			return nil, nil, fmt.Errorf("csv row %d label: %w", i+1, err)
		}
		X = append(X, feats)
		y = append(y, label)
	}
	return X, y, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "screen.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "fail on unknown test types")

	classifyCmd.Flags().StringVar(&audioPath, "audio", "", "WAV recording to extract speech features from")
	classifyCmd.Flags().BoolVar(&noLog, "no-log", false, "skip the screening provenance log")

	trainCmd.Flags().StringVar(&trainName, "name", "screening", "model artifact name")
	trainCmd.Flags().StringVar(&trainKind, "kind", "", "classifier kind: ensemble | gradient_boosted | neural")

	rootCmd.AddCommand(classifyCmd, trainCmd, modelsCmd, replayCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
