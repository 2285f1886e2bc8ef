package main

import (
	"fmt"
	"os"
	"strings"

	"plib-go/internal/app"
	"plib-go/internal/config"
	"plib-go/internal/photolib"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "ListAssets", "Export").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func printWarnings(warnings []photolib.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

var rootCmd = &cobra.Command{
	Use:   "plib",
	Short: "Read-only photo library resolver and query tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [LIBRARY_PATH]",
	Short: "Initialize configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		libraryPath := ""
		if len(args) > 0 {
			libraryPath = args[0]
		}

		cfg := config.NewConfig(libraryPath, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		if libraryPath != "" {
			fmt.Printf("Library: %s\n", libraryPath)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Library:         %s\n", cfg.LibraryPath)
		fmt.Printf("Log Dir:         %s\n", cfg.LogDir)
		fmt.Printf("Include Hidden:  %v\n", cfg.IncludeHidden)
		fmt.Printf("Include Trashed: %v\n", cfg.IncludeTrashed)
		fmt.Printf("Strict Schema:   %v\n", cfg.StrictSchema)
		for _, e := range cfg.Exports {
			fmt.Printf("Export Target:   %s (%s)\n", e.Name, e.Type)
		}
		return nil
	},
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show library generation and resolved schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Info")
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.Session()
		fmt.Printf("Library:  %s\n", s.Root())
		fmt.Printf("Profile:  %s\n", s.Profile())

		schema := s.Schema()
		printField := func(name string, f photolib.ResolvedField) {
			if f.OK {
				fmt.Printf("  %-24s %s\n", name, f.Name)
			} else {
				fmt.Printf("  %-24s (unresolved)\n", name)
			}
		}
		fmt.Println("Schema:")
		printField("asset table", schema.AssetTable)
		printField("album join table", schema.AlbumJoinTable)
		printField("album join album col", schema.AlbumJoinAlbum)
		printField("album join asset col", schema.AlbumJoinAsset)
		printField("album join sort col", schema.AlbumJoinSort)
		printField("keyword join col", schema.KeywordJoinKeyword)
		printField("face asset col", schema.FaceAsset)
		printField("face person col", schema.FacePerson)

		printWarnings(schema.Warnings)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListAssets")
		if err != nil {
			return err
		}
		defer a.Close()

		assets, warnings, err := a.Session().ListAssets()
		if err != nil {
			return err
		}
		printWarnings(warnings)

		if len(assets) == 0 {
			fmt.Println("No assets found.")
			return nil
		}
		for _, asset := range assets {
			var flags []string
			if asset.Favorite {
				flags = append(flags, "favorite")
			}
			if asset.Hidden {
				flags = append(flags, "hidden")
			}
			if asset.Trashed {
				flags = append(flags, "trashed")
			}
			fmt.Printf("%s  %s  %-5s %-15s %s\n",
				asset.UUID,
				asset.CreatedAt.Format("2006-01-02 15:04:05"),
				asset.Kind, asset.Subtype, strings.Join(flags, ","))
		}
		return nil
	},
}

// albums command
var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "Show the album folder tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetFolderTree")
		if err != nil {
			return err
		}
		defer a.Close()

		root, warnings, err := a.Session().Repository().GetFolderTree()
		if err != nil {
			return err
		}
		printWarnings(warnings)

		printFolder(root, 0)
		return nil
	},
}

func printFolder(f *photolib.Folder, depth int) {
	indent := strings.Repeat("  ", depth)
	title := f.Title
	if depth == 0 {
		title = "(library)"
	}
	fmt.Printf("%s%s/\n", indent, title)
	for _, album := range f.Albums {
		fmt.Printf("%s  %s\n", indent, album.Title)
	}
	for _, child := range f.Children {
		printFolder(child, depth+1)
	}
}

// keywords command
var keywordsCmd = &cobra.Command{
	Use:   "keywords UUID",
	Short: "List keywords for an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetKeywordsForAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		repo := a.Session().Repository()
		asset, err := repo.GetAsset(args[0])
		if err != nil {
			return err
		}
		keywords, err := repo.GetKeywordsForAsset(asset)
		if err != nil {
			return err
		}
		for _, kw := range keywords {
			fmt.Println(kw)
		}
		return nil
	},
}

// people command
var peopleCmd = &cobra.Command{
	Use:   "people UUID",
	Short: "List people detected on an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetPeopleForAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		repo := a.Session().Repository()
		asset, err := repo.GetAsset(args[0])
		if err != nil {
			return err
		}
		people, err := repo.GetPeopleForAsset(asset)
		if err != nil {
			return err
		}
		for _, p := range people {
			fmt.Printf("%s (%d faces)\n", p.Name, p.FaceCount)
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export TARGET",
	Short: "Export asset originals to a configured target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		count, warnings, err := a.Export(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		printWarnings(warnings)

		fmt.Printf("Exported %d file(s)\n", count)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(albumsCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(peopleCmd)
	rootCmd.AddCommand(exportCmd)
}
