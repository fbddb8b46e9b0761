package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/worldiety/packfs"
	"github.com/worldiety/packfs/descriptor"
	"github.com/worldiety/packfs/descriptor/kvdesc"
	"github.com/worldiety/packfs/descriptor/luadesc"
	"github.com/worldiety/packfs/internal/packerr"
	"github.com/worldiety/packfs/packarchive"
	"github.com/worldiety/packfs/packpath"
)

func newPackCmd() *cobra.Command {
	var descriptorPath, outputPath string
	var useLua bool
	filter := newFilterValue()

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "seal a descriptor document's sources into a pack file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd.Context(), descriptorPath, outputPath, useLua, filter.codec)
		},
	}
	cmd.Flags().StringVarP(&descriptorPath, "pack", "p", "", "descriptor document driving the build")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "path to write the sealed pack to (default <name>.lpack)")
	cmd.Flags().BoolVar(&useLua, "lua", false, "parse the descriptor as a Lua expression instead of the key/value format")
	cmd.Flags().Var(filter, "filter", "compression filter to seal the pack with")
	cmd.MarkFlagRequired("pack")
	return cmd
}

func runPack(ctx context.Context, descriptorPath, outputPath string, useLua bool, codec packarchive.CompressionCodec) error {
	f, err := os.Open(descriptorPath)
	if err != nil {
		return packerr.IO(err)
	}
	defer f.Close()

	var loader descriptor.Loader = kvdesc.New()
	if useLua {
		loader = luadesc.New()
	}
	cat, err := loader.Load(ctx, f)
	if err != nil {
		return err
	}

	b := pack.NewBuilder()
	b.SetName(cat.Name)
	b.SetDescription(cat.Description)
	b.SetCodec(codec)

	baseDir := filepath.Dir(descriptorPath)
	for _, m := range cat.Mappings {
		logical := packpath.CanonicalizeAlias("/"+m.Namespace, m.Alias)
		if err := b.AddFromFile(string(logical), filepath.Join(baseDir, m.SourceFilename)); err != nil {
			return err
		}
	}

	if outputPath == "" {
		outputPath = packpath.CanonicalizePackName(cat.Name)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return packerr.IO(err)
	}
	defer out.Close()
	return b.WriteTo(out)
}
