package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	rootCmd   = &cobra.Command{
		Use:   "cassette-sync",
		Short: "Cassette-Sync CLI - Offline download manager for audio cassettes",
		Long:  `A command-line interface for downloading cassettes for offline playback and managing the local library.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(bundlesCmd)
	rootCmd.AddCommand(deleteBundleCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(deleteFileCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download [cassette.json]",
	Short: "Download a cassette for offline playback",
	Long:  `Reads a cassette descriptor ({id, title, items}) from a JSON file, or from stdin when the argument is "-".`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		wait, _ := cmd.Flags().GetBool("wait")
		endpoint := serverURL + "/api/v1/downloads"
		if wait {
			endpoint += "?wait=true"
		}

		resp, err := http.Post(endpoint, "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if !wait {
			fmt.Println("Download started")
			return
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		if result["success"] == true {
			color.Green("Cassette fully downloaded")
		} else if result["cancelled"] == true {
			color.Yellow("Download cancelled")
		} else {
			color.Red("Download incomplete")
		}
		fmt.Printf("  Succeeded: %v\n", result["success_count"])
		fmt.Printf("  Failed:    %v\n", result["fail_count"])
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List active downloads",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/v1/jobs")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var jobs []map[string]interface{}
		json.Unmarshal(body, &jobs)

		if len(jobs) == 0 {
			fmt.Println("No active downloads")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CASSETTE\tTITLE\tPROGRESS\tSTATUS")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%v/%v (%v%%)\t%s\n",
				truncate(str(j["cassette_id"]), 12),
				truncate(str(j["title"]), 30),
				j["current"],
				j["total"],
				j["progress"],
				colorStatus(str(j["status"])))
		}
		w.Flush()
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause [cassette-id]",
	Short: "Pause an active download",
	Args:  cobra.ExactArgs(1),
	Run:   jobAction("pause", "Download paused"),
}

var resumeCmd = &cobra.Command{
	Use:   "resume [cassette-id]",
	Short: "Resume a paused download",
	Args:  cobra.ExactArgs(1),
	Run:   jobAction("resume", "Download resumed"),
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [cassette-id]",
	Short: "Cancel an active download",
	Args:  cobra.ExactArgs(1),
	Run:   jobAction("cancel", "Download cancelled"),
}

// jobAction builds the runner for the pause/resume/cancel commands.
func jobAction(action, successMsg string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		resp, err := http.Post(serverURL+"/api/v1/jobs/"+args[0]+"/"+action, "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println(successMsg)
	}
}

var bundlesCmd = &cobra.Command{
	Use:   "bundles",
	Short: "List fully-downloaded cassettes",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/v1/bundles")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var bundles []map[string]interface{}
		json.Unmarshal(body, &bundles)

		if len(bundles) == 0 {
			fmt.Println("No downloaded cassettes")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CASSETTE\tTITLE\tITEMS\tSIZE\tDOWNLOADED")
		for _, b := range bundles {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%s\n",
				truncate(str(b["cassette_id"]), 12),
				truncate(str(b["title"]), 30),
				b["item_count"],
				b["total_size"],
				str(b["downloaded_at"]))
		}
		w.Flush()
	},
}

var deleteBundleCmd = &cobra.Command{
	Use:   "delete-bundle [cassette-id]",
	Short: "Delete a downloaded cassette bundle (keeps the files)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/bundles/"+args[0], nil)
		doSimple(req, "Bundle deleted")
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List downloaded audio files",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/v1/files")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var files map[string]map[string]interface{}
		json.Unmarshal(body, &files)

		if len(files) == 0 {
			fmt.Println("No downloaded files")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tSIZE\tURL")
		for u, f := range files {
			fmt.Fprintf(w, "%s\t%v\t%s\n",
				truncate(str(f["file_name"]), 40),
				f["size"],
				truncate(u, 60))
		}
		w.Flush()
	},
}

var deleteFileCmd = &cobra.Command{
	Use:   "delete-file [url]",
	Short: "Delete a downloaded file record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req, _ := http.NewRequest(http.MethodDelete,
			serverURL+"/api/v1/files?url="+url.QueryEscape(args[0]), nil)
		doSimple(req, "File record deleted")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show offline library statistics",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/v1/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Offline Library:")
		fmt.Printf("  Files:     %v\n", stats["files_count"])
		fmt.Printf("  Cassettes: %v\n", stats["cassettes_count"])
		fmt.Printf("  Size:      %v\n", stats["total_size_formatted"])
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all download records",
	Run: func(cmd *cobra.Command, args []string) {
		req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/library", nil)
		doSimple(req, "Library cleared")
	},
}

func init() {
	downloadCmd.Flags().BoolP("wait", "w", false, "Wait for the download to finish")
}

func doSimple(req *http.Request, successMsg string) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}
	fmt.Println(successMsg)
}

func colorStatus(status string) string {
	switch status {
	case "downloading":
		return color.CyanString(status)
	case "paused":
		return color.YellowString(status)
	case "completed":
		return color.GreenString(status)
	case "error":
		return color.RedString(status)
	default:
		return status
	}
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
