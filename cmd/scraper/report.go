package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/pdf"
	"go-lancers-scout/internal/telegram"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the top ranked stored jobs to a PDF",
	RunE:  runReport,
}

var (
	reportTop      int
	reportOut      string
	reportTelegram bool
	reportHTML     bool
)

func init() {
	addCriteriaFlags(reportCmd)
	reportCmd.Flags().IntVarP(&reportTop, "top", "n", 20, "Number of jobs in the report")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file (default <report_dir>/lancers_report_<timestamp>.pdf)")
	reportCmd.Flags().BoolVar(&reportTelegram, "telegram", false, "Send the PDF to Telegram")
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "Write the HTML instead of printing a PDF")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ranked, err := rankStored(cmd, reportTop)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Fprintln(os.Stdout, "ℹ️ No stored jobs to report.")
		return nil
	}

	now := time.Now()
	report := pdf.Report{
		Title:       "Lancers Job Report",
		GeneratedAt: now,
		Profile:     cfg.Profile,
		Jobs:        ranked,
	}

	ext := ".pdf"
	if reportHTML {
		ext = ".html"
	}
	out := reportOut
	if out == "" {
		out = filepath.Join(cfg.ReportDir, "lancers_report_"+now.Format("20060102_150405")+ext)
	}

	var data []byte
	if reportHTML {
		if data, err = pdf.RenderHTML(report); err != nil {
			return err
		}
	} else {
		pm, err := browser.NewPlaywright(ctx, browser.LaunchOptions{Headless: true})
		if err != nil {
			return err
		}
		defer pm.Close()

		log.Println("🖨️ Printing PDF...")
		if data, err = pdf.NewGenerator(pm).Generate(ctx, report); err != nil {
			return err
		}
	}

	if err := pdf.SaveToFile(data, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "📁 Report with %d jobs saved to %s\n", len(ranked), out)

	if reportTelegram {
		bot, err := telegram.NewBot(cfg.Telegram)
		if err != nil {
			return err
		}
		caption := fmt.Sprintf("Lancers report %s: top %d jobs", now.Format("2006-01-02 15:04"), len(ranked))
		if err := bot.SendDocument(out, caption); err != nil {
			return err
		}
		log.Println("📨 Report sent to Telegram")
	}
	return nil
}
