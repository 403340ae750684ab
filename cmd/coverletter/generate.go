package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/letters"
	"github.com/jonathan/cover-letter/internal/observability"
	"github.com/jonathan/cover-letter/internal/resume"
	"github.com/jonathan/cover-letter/internal/types"
	"github.com/jonathan/cover-letter/internal/validation"
	"github.com/spf13/cobra"
)

var (
	generateResume   string
	generateJob      string
	generateTitle    string
	generateCompany  string
	generateTone     string
	generateLanguage string
	generateOut      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a cover letter from local files",
	Long: `Draft a cover letter from a resume (PDF, text or markdown) and a job description file.
Without an upstream API key the letter comes from the built-in template.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateResume, "resume", "r", "", "Path to the resume (.pdf, .txt or .md)")
	generateCmd.Flags().StringVarP(&generateJob, "job", "j", "", "Path to the job description text")
	generateCmd.Flags().StringVar(&generateTitle, "title", "", "Job title")
	generateCmd.Flags().StringVar(&generateCompany, "company", "", "Company name")
	generateCmd.Flags().StringVar(&generateTone, "tone", "", "Letter tone: concise, professional or enthusiastic")
	generateCmd.Flags().StringVar(&generateLanguage, "language", "", "Letter language (english or russian)")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Also write the letter to this file")

	_ = generateCmd.MarkFlagRequired("resume")
	_ = generateCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Server.LogLevel, cmd.ErrOrStderr())

	resumeText, err := resume.ReadFile(generateResume)
	if err != nil {
		return err
	}
	jobText, err := os.ReadFile(generateJob)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}

	input, err := validation.ValidateRequest(types.GenerationRequest{
		ResumeText:     resumeText,
		JobDescription: string(jobText),
		JobTitle:       generateTitle,
		Company:        generateCompany,
		Tone:           generateTone,
		Language:       generateLanguage,
	})
	if err != nil {
		return err
	}

	upstream, err := newUpstream(cmd.Context(), cfg.Upstream, logger)
	if err != nil {
		return err
	}
	var completer letters.Completer
	if upstream != nil {
		defer func() { _ = upstream.Close() }()
		completer = upstream
	}

	gen := letters.New(completer, letters.Options{
		Temperature: cfg.Upstream.Temperature,
		MaxTokens:   cfg.Upstream.MaxTokens,
		Timeout:     cfg.Upstream.Timeout,
		Logger:      logger,
	})
	result := gen.Generate(cmd.Context(), *input)
	if !result.OK() {
		if result.Kind != letters.KindFailed {
			return fmt.Errorf("generation failed: %w", letters.ErrEmptyResponse)
		}
		if result.Err != nil {
			return fmt.Errorf("generation failed (%s): %w", result.Failure, result.Err)
		}
		return fmt.Errorf("generation failed (%s)", result.Failure)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintLetter(input.JobTitle, input.Company, result.Kind.String(), result.Text)

	if generateOut != "" {
		if err := writeLetter(generateOut, result.Text); err != nil {
			return err
		}
	}
	return nil
}

func writeLetter(path, letter string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.WriteString(f, letter+"\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write letter: %w", err)
	}
	return f.Close()
}
