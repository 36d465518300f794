package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appai "github.com/rasoiops/rasoiops/internal/application/ai"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image-file>",
	Short: "Extract inventory items from a photo and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newOneShot()
		if err != nil {
			return err
		}
		defer app.logger.Sync() //nolint:errcheck

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.Server.RequestTimeout)
		defer cancel()

		result, err := appai.NewExtractionService(app.provider, app.opts, app.logger).
			Extract(ctx, appai.ImageInput{Data: data, MIMEType: mimeFromExt(args[0])})
		if err != nil {
			return err
		}
		if !result.OK() {
			return result.ParseError
		}

		return printJSON(cmd, result.Items)
	},
}

// mimeFromExt returns "" for unknown extensions so the content is sniffed
func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return ""
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
