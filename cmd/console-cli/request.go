package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
)

func newRequestCommand() *cobra.Command {
	var (
		data    string
		query   []string
		headers []string
		binary  bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send a request through the pipeline and print the payload",
		Long: `Send an arbitrary request to the backend. The path is joined onto the
configured server URL. JSON payloads are printed indented; binary payloads
are written as-is.`,
		Example: `  console-cli request GET /components
  console-cli request POST /components --data '{"name":"Bogie","code":"BG"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &httpclient.Request{
				Method: strings.ToUpper(args[0]),
				Path:   args[1],
			}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				req.Body = json.RawMessage(data)
			}
			q, err := parsePairs(query)
			if err != nil {
				return fmt.Errorf("invalid --query: %w", err)
			}
			req.Query = url.Values{}
			for _, p := range q {
				req.Query.Add(p[0], p[1])
			}
			h, err := parsePairs(headers)
			if err != nil {
				return fmt.Errorf("invalid --header: %w", err)
			}
			for _, p := range h {
				httpclient.WithHeader(p[0], p[1])(req)
			}
			if binary {
				httpclient.AsBinary()(req)
			}
			if quiet {
				httpclient.Quiet()(req)
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			body, err := client.Do(ctx, req)
			if err != nil {
				return err
			}
			return printBody(cmd, body)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Query parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header key=value (repeatable)")
	cmd.Flags().BoolVar(&binary, "binary", false, "Treat the response as binary")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress and success notifications")

	return cmd
}

func newDownloadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Download a file from the backend",
		Long: `Download a file. Without --output the file is saved under the name the
server suggests in the current directory.`,
		Example: `  console-cli download /components/<id>/export`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			bin, err := client.Download(ctx, args[0], nil)
			if err != nil {
				return err
			}

			dest := output
			if dest == "" {
				dest = filepath.Base(bin.Filename)
				if bin.Filename == "" || dest == "." || dest == string(filepath.Separator) {
					dest = "download.bin"
				}
			}
			if err := os.WriteFile(dest, bin.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", dest, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", len(bin.Data), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file")

	return cmd
}

func newUploadCommand() *cobra.Command {
	var (
		fields []string
		files  []string
	)

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Post a multipart form with files",
		Example: `  console-cli upload /railway-vehicles --field model=CRH380A --field number=2651 \
    --file images=front.jpg --file images=side.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(cmd.Context()); err != nil {
				return err
			}

			fieldPairs, err := parsePairs(fields)
			if err != nil {
				return fmt.Errorf("invalid --field: %w", err)
			}
			filePairs, err := parsePairs(files)
			if err != nil {
				return fmt.Errorf("invalid --file: %w", err)
			}

			form := &httpclient.MultipartForm{}
			for _, p := range fieldPairs {
				form.AddField(p[0], p[1])
			}
			for _, p := range filePairs {
				f, err := os.Open(p[1])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", p[1], err)
				}
				defer f.Close()
				form.AddFile(p[0], filepath.Base(p[1]), f)
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			body, err := client.Do(ctx, &httpclient.Request{
				Method: http.MethodPost,
				Path:   args[0],
				Form:   form,
			})
			if err != nil {
				return err
			}
			return printBody(cmd, body)
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "Form field name=value (repeatable)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "File field name=path (repeatable)")

	return cmd
}

// parsePairs splits key=value arguments
func parsePairs(args []string) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%q is not key=value", arg)
		}
		out = append(out, [2]string{key, value})
	}
	return out, nil
}

func printBody(cmd *cobra.Command, body httpclient.Body) error {
	out := cmd.OutOrStdout()
	switch b := body.(type) {
	case httpclient.JSONBody:
		if len(b.Raw) == 0 {
			return nil
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, b.Raw, "", "  "); err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(out)
		return err
	case httpclient.BinaryBody:
		_, err := out.Write(b.Data)
		return err
	default:
		return nil
	}
}
