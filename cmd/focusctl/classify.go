package main

import (
	"fmt"
	"io"
	"os"

	"FocusSentry/pkg/cascade"
	"FocusSentry/pkg/classifier"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type classifyOptions struct {
	FaceCascade string
	EyeCascade  string
}

var classifyOpts classifyOptions

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "Classify image files the same way the server classifies frames",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runClassify(cmd.OutOrStdout(), args, classifyOpts)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyOpts.FaceCascade, "face-cascade", os.Getenv("FOCUS_FACE_CASCADE"), "Face cascade XML (default: search FOCUS_CASCADE_DIR and the OpenCV data dirs)")
	classifyCmd.Flags().StringVar(&classifyOpts.EyeCascade, "eye-cascade", os.Getenv("FOCUS_EYE_CASCADE"), "Eye cascade XML (default: search FOCUS_CASCADE_DIR and the OpenCV data dirs)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(out io.Writer, files []string, opts classifyOptions) error {
	facePath, err := cascade.Resolve(opts.FaceCascade, cascade.FaceCascadeFile)
	if err != nil {
		return err
	}
	eyePath, err := cascade.Resolve(opts.EyeCascade, cascade.EyeCascadeFile)
	if err != nil {
		return err
	}

	face, err := cascade.New(facePath, 1)
	if err != nil {
		return err
	}
	defer face.Close()

	eyes, err := cascade.New(eyePath, 1)
	if err != nil {
		return err
	}
	defer eyes.Close()

	c := classifier.New(face, eyes)

	var failed int
	for _, file := range files {
		frame, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(out, "%s\t%s\n", file, color.RedString("error: %v", err))
			failed++
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", file, colorVerdict(c.Evaluate(frame)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(files))
	}
	return nil
}

func colorVerdict(v classifier.Verdict) string {
	switch {
	case v.Focused():
		return color.GreenString("focused")
	case v == classifier.DecodeError || v == classifier.DetectorFailure:
		return color.RedString("unfocused (%s)", v)
	default:
		return color.YellowString("unfocused (%s)", v)
	}
}
