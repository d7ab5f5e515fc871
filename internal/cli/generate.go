package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cristianadrielbraun/protectedqr/internal/codec"
	"github.com/cristianadrielbraun/protectedqr/internal/compose"
	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
)

type generateOptions struct {
	Output string
	Size   int
	Border int
	Image  string
}

// GenerateResult describes a written artifact.
type GenerateResult struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Bytes  int    `json:"bytes"`
	Token  string `json:"token"`
}

func (r GenerateResult) Text() string {
	return fmt.Sprintf("wrote %s (%s, %d bytes)", r.Path, r.Format, r.Bytes)
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	c := contract.V1()
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <token>",
		Short: "Write a protected QR for a token",
		Long: `Write a protected QR code for <token> to a PNG, JPEG or SVG file.

The image type follows --image, or the output file extension when --image is unset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "protected-qr.png", "output file")
	cmd.Flags().IntVar(&opts.Size, "size", c.DefaultSizePx, "image side in pixels")
	cmd.Flags().IntVar(&opts.Border, "border", c.BorderModules, "quiet zone in modules")
	cmd.Flags().StringVar(&opts.Image, "image", "", "image type (png|jpg|svg)")

	return cmd
}

func runGenerate(rootOpts *RootOptions, opts *generateOptions, token string, cmd *cobra.Command) error {
	out := rootOpts.formatter(cmd)
	composer := compose.NewComposer(contract.V1(), rootOpts.logger(cmd.ErrOrStderr()))

	format := opts.Image
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(opts.Output), ".")
	}
	format = codec.NormalizeFormat(format)

	composeOpts := compose.Options{Size: opts.Size, Border: opts.Border}
	var body []byte
	if format == codec.SVG {
		doc, err := composer.ComposeSVG(token, composeOpts)
		if err != nil {
			return generateError(out, err)
		}
		body = doc
	} else {
		img, err := composer.Compose(token, composeOpts)
		if err != nil {
			return generateError(out, err)
		}
		var buf bytes.Buffer
		if err := codec.Encode(&buf, img, format); err != nil {
			return generateError(out, err)
		}
		body = buf.Bytes()
	}

	if err := os.WriteFile(opts.Output, body, 0o644); err != nil {
		return generateError(out, err)
	}
	return out.Success(GenerateResult{Path: opts.Output, Format: format, Bytes: len(body), Token: token})
}

func generateError(out *OutputFormatter, err error) error {
	_ = out.Error(err)
	msg := "generation failed"
	if errors.Is(err, qrerr.ErrInput) {
		msg = "invalid input"
	}
	return WrapExitError(ExitCommandError, msg, err)
}
