package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mooglejp/atomcam_tools/camsnap/internal/camera"
)

type cameraInfo struct {
	ID    string `json:"id"`
	Brand string `json:"brand"`
	Model string `json:"model,omitempty"`
	Host  string `json:"host"`
	URL   string `json:"url,omitempty"`
}

func describe(cam camera.Camera) cameraInfo {
	info := cameraInfo{
		ID:    cam.ID(),
		Brand: cam.Brand(),
		Model: cam.Model(),
		Host:  cam.Host(),
	}
	if u, ok := cam.(interface{ URL() string }); ok {
		info.URL = u.URL()
	}
	return info
}

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured cameras",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		cameras := a.manager.List()
		infos := make([]cameraInfo, 0, len(cameras))
		for _, cam := range cameras {
			infos = append(infos, describe(cam))
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tBRAND\tMODEL\tHOST\tURL")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", info.ID, info.Brand, info.Model, info.Host, info.URL)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output results as JSON")
}
