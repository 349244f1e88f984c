// Command vfsim runs the firmware core against the simulated JH7110.
//
//	vfsim run [--board board.yaml] scenario.yaml...
//	vfsim board [board.yaml]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"visionfw/config"
	"visionfw/host/scenario"
)

var (
	boardPath string
	debug     bool

	rootCmd = &cobra.Command{
		Use:          "vfsim",
		Short:        "Run the firmware core on a simulated JH7110",
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run scenario.yaml...",
		Short: "Run scenarios and check their expectations",
		Long: "Each scenario runs on a fresh simulated SoC with the firmware configured\n" +
			"from the board file. --board overrides the board named in the scenario;\n" +
			"without either the built-in VisionFive 2 setup is used.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				ok, err := runScenario(path)
				if err != nil {
					return err
				}
				if !ok {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
			}
			return nil
		},
	}

	boardCmd = &cobra.Command{
		Use:   "board [board.yaml]",
		Short: "Print a board file with defaults applied",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := config.Default()
			if len(args) == 1 {
				var err error
				if b, err = config.Load(args[0]); err != nil {
					return err
				}
			}
			data, err := config.Marshal(b)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&boardPath, "board", "b", "", "board file (default: the scenario's board, else built-in)")
	runCmd.Flags().BoolVar(&debug, "debug", false, "verbose firmware output")
	rootCmd.AddCommand(runCmd, boardCmd)
}

func loadBoard(s *scenario.Scenario) (*config.Board, error) {
	path := boardPath
	if path == "" {
		path = s.BoardPath()
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runScenario(path string) (bool, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return false, err
	}
	board, err := loadBoard(s)
	if err != nil {
		return false, err
	}
	if debug {
		board.Debug = true
	}

	fmt.Printf("=== %s (board %s)\n", s.Name, board.Name)
	r, err := scenario.NewRunner(board, os.Stdout)
	if err != nil {
		return false, err
	}
	res, err := r.Run(s)
	if err != nil {
		return false, err
	}
	res.Summary(os.Stdout)
	return res.Passed(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
