package main

import (
	"fmt"
	"os"
	"strconv"

	"feedgrid/internal/app"
	"feedgrid/internal/config"
	"feedgrid/internal/planner"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// feedID optionally targets a feed other than the oldest one.
var feedID string

// newApp reads the config and creates a PlannerApp. The caller must defer app.Close().
func newApp() (*app.PlannerApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPlannerApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	if feedID != "" {
		if err := a.SelectFeed(feedID); err != nil {
			a.Close()
			return nil, fmt.Errorf("selecting feed: %w", err)
		}
		if a.SelectedFeed() == nil || a.SelectedFeed().ID != feedID {
			a.Close()
			return nil, fmt.Errorf("no feed with id %s", feedID)
		}
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "feedgrid",
	Short: "Local photo grid planner",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
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
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Image Store: %s (%s)\n", cfg.ImageStore.Type, cfg.ImageStore.DataDir)
		return nil
	},
}

// feeds command
var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Manage feeds",
}

var feedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		selected := a.SelectedFeed()
		for _, f := range a.Feeds() {
			marker := " "
			if selected != nil && f.ID == selected.ID {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  %s\n", marker, f.ID, f.CreatedAt.Format("2006-01-02 15:04:05"), f.Name)
		}
		return nil
	},
}

var feedsAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add a new feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		feed := a.AddFeed(name)
		fmt.Printf("Added feed %s (%s)\n", feed.Name, feed.ID)
		return nil
	},
}

var feedsRenameCmd = &cobra.Command{
	Use:   "rename FEED_ID NAME",
	Short: "Rename a feed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.RenameFeed(args[0], args[1])
		return nil
	},
}

var feedsDeleteCmd = &cobra.Command{
	Use:   "delete FEED_ID",
	Short: "Delete a feed and all of its posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.DeleteFeed(args[0])
	},
}

// posts command
var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage posts of the selected feed",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts in position order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		posts := a.Posts()
		if len(posts) == 0 {
			fmt.Println("No posts.")
			return nil
		}

		for _, p := range posts {
			lock := " "
			if p.IsLocked {
				lock = "L"
			}
			image := "-"
			if p.BlobKey != "" {
				image = p.BlobKey[:12]
			}
			crop := " "
			if p.Crop.IsSet() {
				crop = "C"
			}
			fmt.Printf("%3d %s%s %s  %s\n", p.Position, lock, crop, p.ID, image)
		}
		return nil
	},
}

var postsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append an empty post",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		post := a.AddEmptyPost()
		fmt.Printf("Added post %s at position %d\n", post.ID, post.Position)
		return nil
	},
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete POST_ID",
	Short: "Delete a post and compact positions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.DeletePost(args[0])
		return nil
	},
}

var postsSwapCmd = &cobra.Command{
	Use:   "swap POST_ID POST_ID",
	Short: "Exchange the positions of two posts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.SwapPosts(args[0], args[1])
		return nil
	},
}

var postsMoveCmd = &cobra.Command{
	Use:   "move POST_ID TARGET_POST_ID",
	Short: "Move a post to another post's slot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.MovePost(args[0], args[1])
		return nil
	},
}

var postsLockCmd = &cobra.Command{
	Use:   "lock POST_ID",
	Short: "Toggle a post's lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.ToggleLock(args[0])
		return nil
	},
}

var postsCropCmd = &cobra.Command{
	Use:   "crop POST_ID POS_X POS_Y SCALE ZOOM",
	Short: "Set a post's crop parameters",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make([]float64, 4)
		for i, raw := range args[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("parsing %q: %w", raw, err)
			}
			values[i] = v
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.SetCropData(args[0], planner.CropData{
			PosX:  values[0],
			PosY:  values[1],
			Scale: values[2],
			Zoom:  values[3],
		})
		return nil
	},
}

// image command
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Attach images to posts",
}

var imageSetCmd = &cobra.Command{
	Use:   "set POST_ID FILE",
	Short: "Attach an image file to a post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetImage(args[0], args[1]); err != nil {
			return fmt.Errorf("setting image: %w", err)
		}
		return nil
	},
}

// images command
var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage the image store",
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored images",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Images()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No images stored.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Key, e.Handle)
		}
		return nil
	},
}

var imagesDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete a stored image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		existed, err := a.DeleteImage(args[0])
		if err != nil {
			return err
		}
		if !existed {
			fmt.Println("No such image.")
		}
		return nil
	},
}

func init() {
	postsCmd.PersistentFlags().StringVar(&feedID, "feed", "", "feed id to operate on (default: oldest feed)")
	imageCmd.PersistentFlags().StringVar(&feedID, "feed", "", "feed id to operate on (default: oldest feed)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	feedsCmd.AddCommand(feedsListCmd)
	feedsCmd.AddCommand(feedsAddCmd)
	feedsCmd.AddCommand(feedsRenameCmd)
	feedsCmd.AddCommand(feedsDeleteCmd)

	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsAddCmd)
	postsCmd.AddCommand(postsDeleteCmd)
	postsCmd.AddCommand(postsSwapCmd)
	postsCmd.AddCommand(postsMoveCmd)
	postsCmd.AddCommand(postsLockCmd)
	postsCmd.AddCommand(postsCropCmd)

	imageCmd.AddCommand(imageSetCmd)

	imagesCmd.AddCommand(imagesListCmd)
	imagesCmd.AddCommand(imagesDeleteCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(feedsCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(imagesCmd)
}
