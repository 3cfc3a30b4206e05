package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/biomxt/biomxt/convert"
	"github.com/biomxt/biomxt/shared"
	"github.com/spf13/cobra"
)

func newConvertCommand() *cobra.Command {
	var (
		blockWidth  uint32
		blockHeight uint32
		separator   string
		dtype       string
		compress    string
		overwrite   bool
	)

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a CSV/TSV matrix to a BMXt file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, outputPath := args[0], args[1]

			if !overwrite {
				if _, err := os.Stat(outputPath); err == nil {
					return fmt.Errorf("%w: output file %q already exists (use --overwrite)", shared.ErrBadArgument, outputPath)
				}
			}

			sep, err := resolveSeparator(separator, inputPath)
			if err != nil {
				return err
			}

			cellType := shared.TypeFromName(dtype)
			if cellType == shared.Unknown {
				return fmt.Errorf("%w: unknown cell type %q", shared.ErrBadArgument, dtype)
			}
			compression, ok := shared.CompressionFromName(compress)
			if !ok {
				return fmt.Errorf("%w: unknown compression algorithm %q", shared.ErrBadArgument, compress)
			}

			header, warnings, err := convert.Convert(convert.Options{
				InputPath:   inputPath,
				OutputPath:  outputPath,
				BlockWidth:  blockWidth,
				BlockHeight: blockHeight,
				Separator:   sep,
				Compression: compression,
				CellType:    cellType,
			})
			if err != nil {
				return err
			}

			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rows x %d cols, %d blocks\n",
				outputPath, header.NRow, header.NCol, header.BlockCount)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&blockWidth, "block-width", 256, "block width in columns")
	cmd.Flags().Uint32Var(&blockHeight, "block-height", 256, "block height in rows")
	cmd.Flags().StringVar(&separator, "separator", "auto", `field separator: "," , "\t", or "auto" to detect from the input extension`)
	cmd.Flags().StringVar(&dtype, "dtype", "float32", "cell type: int16, int32, int64, float32, float64")
	cmd.Flags().StringVar(&compress, "compress", "zstd", "compression algorithm")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite the output file if it already exists")

	return cmd
}

// resolveSeparator honors an explicit --separator, and otherwise detects tab
// for .tsv inputs and falls back to comma for everything else, matching the
// original tool's CLI default.
func resolveSeparator(separator, inputPath string) (byte, error) {
	switch separator {
	case "auto":
		if strings.HasSuffix(strings.ToLower(inputPath), ".tsv") {
			return '\t', nil
		}
		return ',', nil
	case ",":
		return ',', nil
	case "\\t", "tab":
		return '\t', nil
	default:
		if len(separator) == 1 {
			return separator[0], nil
		}
		return 0, fmt.Errorf("%w: separator must be a single character, \"tab\", or \"auto\"", shared.ErrBadArgument)
	}
}
