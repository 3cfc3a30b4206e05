package main

import (
	"fmt"

	"github.com/biomxt/biomxt/reader"
	"github.com/biomxt/biomxt/shared"
	"github.com/spf13/cobra"
)

func newHeaderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "header <file>",
		Short: "Print a BMXt file's header fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := reader.Open(args[0], nil)
			if err != nil {
				return err
			}
			defer r.Close()

			h, err := r.Header()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "magic:              %s\n", string(h.Magic[:]))
			fmt.Fprintf(out, "version:            %d\n", h.VersionNo)
			fmt.Fprintf(out, "cell type:          %s\n", shared.Name(h.CellType))
			fmt.Fprintf(out, "compression:        %s\n", shared.CompressionName(h.Compression))
			fmt.Fprintf(out, "rows:               %d\n", h.NRow)
			fmt.Fprintf(out, "columns:            %d\n", h.NCol)
			fmt.Fprintf(out, "block width:        %d\n", h.BlockWidth)
			fmt.Fprintf(out, "block height:       %d\n", h.BlockHeight)
			fmt.Fprintf(out, "block count:        %d\n", h.BlockCount)
			fmt.Fprintf(out, "block table offset: %d\n", h.BlockTableOffset)
			fmt.Fprintf(out, "name table offset:  %d\n", h.NameTableOffset)
			fmt.Fprintf(out, "uuid:               %s\n", h.UUID.String())
			fmt.Fprintf(out, "max compressed block size:   %d\n", r.MaxCompressedBlockSize())
			fmt.Fprintf(out, "max uncompressed block size: %d\n", r.MaxUncompressedBlockSize())
			return nil
		},
	}
}
