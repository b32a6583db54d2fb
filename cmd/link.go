package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverURL string

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:3000", "server address")

	rootCmd.AddCommand(createLinkCmd())
	rootCmd.AddCommand(listLinksCmd())
	rootCmd.AddCommand(getLinkCmd())
	rootCmd.AddCommand(deleteLinkCmd())
}

type linkInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CustomURL  *string    `json:"custom_url"`
	CreatedAt  time.Time  `json:"created_at"`
	URL        string     `json:"url"`
	MaskedURLs maskedURLs `json:"masked_urls"`
	Visits     []struct {
		Latitude  *float64  `json:"latitude"`
		Longitude *float64  `json:"longitude"`
		City      *string   `json:"city"`
		Country   *string   `json:"country"`
		Source    string    `json:"source"`
		VisitedAt time.Time `json:"visited_at"`
	} `json:"visits"`
}

type maskedURLs struct {
	File  string `json:"file"`
	Photo string `json:"photo"`
}

// call sends one API request and decodes the response into out. Non-2xx
// responses are returned as errors carrying the server's message.
func call(method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, serverURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(res.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("request failed with status %d", res.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func createLinkCmd() *cobra.Command {
	var name string
	var destination string
	var slug string

	var required = []string{"name"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a tracked link",
		Example: "linktrace create -n <name> -u <destination-url> -g <slug>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			var link linkInfo
			err := call(http.MethodPost, "/api/links", map[string]string{
				"name":       name,
				"customUrl":  destination,
				"customSlug": slug,
			}, &link)
			if err != nil {
				logrus.Error(err)
				return
			}

			color.Green("link created with id: %s", link.ID)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"URL", "File", "Photo"})
			table.Append([]string{link.URL, link.MaskedURLs.File, link.MaskedURLs.Photo})
			table.Render()
		},
	}

	command.Flags().StringVarP(&name, "name", "n", "", "link name (required)")
	command.Flags().StringVarP(&destination, "url", "u", "", "destination url")
	command.Flags().StringVarP(&slug, "slug", "g", "", "custom identifier")

	command.Flags().SortFlags = false

	return command
}

func listLinksCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "list",
		Short:   "list tracked links",
		Example: "linktrace list",
		Run: func(cmd *cobra.Command, args []string) {
			var links []linkInfo
			if err := call(http.MethodGet, "/api/links", nil, &links); err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Destination", "Created"})
			for _, link := range links {
				destination := "-"
				if link.CustomURL != nil {
					destination = *link.CustomURL
				}
				table.Append([]string{link.ID, link.Name, destination, link.CreatedAt.Format(time.RFC3339)})
			}
			table.Render()
		},
	}

	return command
}

func getLinkCmd() *cobra.Command {
	var linkID string

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "show a link and its visits",
		Example: "linktrace get -l <link-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			var link linkInfo
			if err := call(http.MethodGet, "/api/links/"+linkID, nil, &link); err != nil {
				logrus.Error(err)
				return
			}

			color.Cyan("%s (%s)", link.Name, link.ID)
			fmt.Println("url:   ", link.URL)
			fmt.Println("file:  ", link.MaskedURLs.File)
			fmt.Println("photo: ", link.MaskedURLs.Photo)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Visited", "Source", "Lat", "Lng", "Place"})
			for _, v := range link.Visits {
				lat, lng := "-", "-"
				if v.Latitude != nil {
					lat = strconv.FormatFloat(*v.Latitude, 'f', 4, 64)
				}
				if v.Longitude != nil {
					lng = strconv.FormatFloat(*v.Longitude, 'f', 4, 64)
				}
				place := ""
				if v.City != nil {
					place = *v.City
				}
				if v.Country != nil {
					if place != "" {
						place += ", "
					}
					place += *v.Country
				}
				table.Append([]string{v.VisitedAt.Format(time.RFC3339), v.Source, lat, lng, place})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().SortFlags = false

	return command
}

func deleteLinkCmd() *cobra.Command {
	var linkID string

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a link and its visits",
		Example: "linktrace delete -l <link-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if err := call(http.MethodDelete, "/api/links/"+linkID, nil, nil); err != nil {
				logrus.Error(err)
				return
			}

			color.Green("link deleted")
		},
	}

	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().SortFlags = false

	return command
}
