package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/format"
	"github.com/kittycad/kittycad-go/internal/storage"
	"github.com/kittycad/kittycad-go/packages/wsconn"
)

type modelingStream = wsconn.Stream[kittycad.WebSocketRequest, kittycad.WebSocketResponse]

func newModelingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modeling",
		Short: "Drive the modeling engine",
	}

	var (
		fps    int64
		width  int64
		height int64
		webrtc bool
		pool   string
		replay string
		outDir string
	)
	ws := &cobra.Command{
		Use:   "ws",
		Short: "Send modeling commands read from stdin, one JSON object per line",
		Long: `Open a modeling session and send every line of stdin as a modeling
command, for example {"type":"default_camera_zoom","magnitude":2}. Each
response is printed as it arrives. Files from export commands are saved to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := kittycad.ModelingCommandsWsParams{
				Fps:            kittycad.F(fps),
				VideoResWidth:  kittycad.F(width),
				VideoResHeight: kittycad.F(height),
				Webrtc:         kittycad.F(webrtc),
			}
			if pool != "" {
				query.Pool = kittycad.F(pool)
			}
			if replay != "" {
				query.Replay = kittycad.F(replay)
			}
			stream, err := a.client.Modeling.CommandsWs(ctx, query)
			if err != nil {
				return err
			}
			defer stream.CloseNow()

			var failed []error
			scanner := bufio.NewScanner(a.input())
			scanner.Buffer(make([]byte, 0, 64<<10), 4<<20)
			for line := 1; scanner.Scan(); line++ {
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				if !gjson.Valid(text) {
					return fmt.Errorf("line %d is not valid JSON", line)
				}
				req := kittycad.NewModelingCmdRequest(json.RawMessage(text))
				if err := stream.Send(ctx, req); err != nil {
					return err
				}
				resp, err := a.awaitResponse(ctx, stream, req.CmdID)
				if err != nil {
					return err
				}
				if err := resp.Err(); err != nil {
					failed = append(failed, err)
					fmt.Fprintln(a.stderr, err)
					continue
				}
				if err := a.printModelingResponse(ctx, resp, outDir); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			if err := stream.Close(); err != nil {
				a.log.Debug("modeling close", "error", err)
			}
			return errors.Join(failed...)
		},
	}
	ws.Flags().Int64Var(&fps, "fps", 30, "Frames per second of the video feed")
	ws.Flags().Int64Var(&width, "width", 1280, "Width of the video feed, a multiple of 4")
	ws.Flags().Int64Var(&height, "height", 720, "Height of the video feed, a multiple of 4")
	ws.Flags().BoolVar(&webrtc, "webrtc", false, "Stream video over WebRTC")
	ws.Flags().StringVar(&pool, "pool", "", "Engine pool to use")
	ws.Flags().StringVar(&replay, "replay", "", "Write the session's commands to this file name on the server")
	ws.Flags().StringVar(&outDir, "out", "", "Directory for exported files (default <data_dir>/outputs)")

	cmd.AddCommand(ws)
	return cmd
}

// awaitResponse reads frames until the one answering id. Frames about other
// requests are logged and skipped.
func (a *app) awaitResponse(ctx context.Context, stream *modelingStream, id uuid.UUID) (kittycad.WebSocketResponse, error) {
	for {
		resp, err := stream.Recv(ctx)
		if err != nil {
			if wsconn.IsNormalClose(err) {
				return resp, fmt.Errorf("session closed before command %s was answered", id)
			}
			return resp, err
		}
		if resp.RequestID != nil && *resp.RequestID == id {
			return resp, nil
		}
		typ := ""
		if resp.Resp != nil {
			typ = string(resp.Resp.Type)
		}
		a.log.Debug("modeling frame", "type", typ, "success", resp.Success)
	}
}

func (a *app) printModelingResponse(ctx context.Context, resp kittycad.WebSocketResponse, outDir string) error {
	if resp.Resp == nil {
		return a.out.Text("ok")
	}
	files, ok, err := resp.Resp.ExportFiles()
	if err != nil {
		return err
	}
	if ok && len(files) > 0 {
		store, err := storage.Open(a.outputDir(outDir))
		if err != nil {
			return err
		}
		defer store.Close()
		for _, file := range files {
			path, err := store.WriteFile(ctx, file.Contents, file.Name)
			if err != nil {
				return err
			}
			a.log.Info("saved export", "path", path)
		}
	}

	if a.out.Format == format.JSONFormat {
		return a.out.JSON(resp)
	}
	modeling, ok, err := resp.Resp.ModelingResponse()
	if err != nil {
		return err
	}
	if ok {
		return a.out.Text(strings.TrimSpace(modeling.Type + " " + string(modeling.Data)))
	}
	if len(files) > 0 {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.Name
		}
		return a.out.Text("export " + strings.Join(names, ", "))
	}
	return a.out.Text(string(resp.Resp.Type))
}
