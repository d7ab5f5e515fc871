package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cristianadrielbraun/protectedqr/internal/codec"
	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/locate"
	"github.com/cristianadrielbraun/protectedqr/internal/verify"
)

// VerifyResult wraps verify.Result with a text rendering.
type VerifyResult struct {
	verify.Result
}

func (r VerifyResult) Text() string {
	if !r.Decoded() {
		return "no QR code found"
	}
	label := "inconclusive"
	switch {
	case r.IsAuthentic:
		label = "authentic"
	case r.IsPhotocopy:
		label = "likely a copy"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", label)
	fmt.Fprintf(&b, "  token:       %s\n", *r.Token)
	fmt.Fprintf(&b, "  confidence:  %.3f\n", r.ConfidenceScore)
	fmt.Fprintf(&b, "  match:       %.3f\n", r.BinaryMatchRatio)
	fmt.Fprintf(&b, "  correlation: %.3f\n", r.BinaryCorrelation)
	fmt.Fprintf(&b, "  method:      %s", r.Method)
	return b.String()
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <image|->",
		Short: "Check a photo of a protected QR",
		Long: `Decode the QR code in an image and score its centre pattern.

Reads stdin when the argument is "-". Exits 0 when the code is authentic,
1 when it is not (or no code was found) and 2 on errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}
}

func runVerify(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	out := rootOpts.formatter(cmd)
	fail := func(msg string, err error) error {
		_ = out.Error(err)
		return WrapExitError(ExitCommandError, msg, err)
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fail("read image", err)
	}
	img, _, err := codec.DecodeImage(data)
	if err != nil {
		return fail("decode image", err)
	}

	det, release, err := locate.Open(rootOpts.Detector)
	if err != nil {
		return fail("open detector", err)
	}
	defer func() { _ = release() }()

	res, err := verify.New(contract.V1(), det, rootOpts.logger(cmd.ErrOrStderr())).Verify(img)
	if err != nil {
		return fail("verify", err)
	}
	if err := out.Success(VerifyResult{res}); err != nil {
		return fail("write result", err)
	}
	if !res.IsAuthentic {
		return NewExitError(ExitFailure, "not authentic")
	}
	return nil
}
