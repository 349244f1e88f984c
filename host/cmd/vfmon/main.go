// Command vfmon follows the firmware's debug UART, checks every framed log
// line and flags line noise.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"visionfw/host/monitor"
	"visionfw/host/serial"
)

var (
	device     string
	baud       int
	timeoutMs  int
	replay     string
	verbose    bool
	quiet      bool
	exitOnHalt bool

	rootCmd = &cobra.Command{
		Use:   "vfmon",
		Short: "Follow the JH7110 firmware log",
		Long: "Read framed log lines from the board UART (or a captured log), verify each\n" +
			"line's CRC-8 and print it. Corrupt and unframed lines are flagged.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&device, "device", "d", "/dev/ttyUSB0", "serial device path")
	rootCmd.Flags().IntVarP(&baud, "baud", "b", 115200, "baud rate")
	rootCmd.Flags().IntVar(&timeoutMs, "timeout", 100, "read timeout in milliseconds")
	rootCmd.Flags().StringVarP(&replay, "replay", "r", "", "read a captured log file instead of the device")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "prefix lines with a timestamp")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide corrupt and unframed lines")
	rootCmd.Flags().BoolVar(&exitOnHalt, "exit-on-halt", false, "exit with status 2 when the firmware halts")
}

func run() error {
	mon := monitor.NewMonitor()

	if replay != "" {
		f, err := os.Open(replay)
		if err != nil {
			return fmt.Errorf("open capture: %w", err)
		}
		mon.Attach(f)
	} else {
		cfg := serial.DefaultConfig(device)
		cfg.Baud = baud
		cfg.ReadTimeout = timeoutMs
		fmt.Fprintf(os.Stderr, "Following %s at %d baud...\n", device, baud)
		if err := mon.ConnectWithConfig(cfg); err != nil {
			return err
		}
	}
	defer mon.Close()

	// Ctrl-C ends the read loop after the current read
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		mon.Stop()
	}()

	halted := false
	err := mon.Run(func(l monitor.Line) {
		prefix := ""
		if verbose {
			prefix = l.Time.Format("15:04:05.000") + " "
		}
		switch {
		case l.Err == nil:
			fmt.Println(prefix + l.Text)
		case !quiet:
			fmt.Printf("%s!! %v: %q\n", prefix, l.Err, l.Text)
		}
		if l.Halt() {
			halted = true
			if exitOnHalt {
				mon.Stop()
			}
		}
	})

	st := mon.Stats()
	fmt.Fprintf(os.Stderr, "%d lines, %d corrupt, %d unframed\n", st.Lines, st.Corrupt, st.Invalid)
	if err != nil {
		return err
	}
	if halted && exitOnHalt {
		mon.Close()
		os.Exit(2)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
