package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/format"
	"github.com/kittycad/kittycad-go/packages/wsconn"
)

func newMLCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ml",
		Short: "Generate models from prompts and chat with the copilot",
	}
	cmd.AddCommand(newTextToCADCmd(a), newCopilotCmd(a))
	return cmd
}

func newTextToCADCmd(a *app) *cobra.Command {
	var (
		output   string
		kcl      bool
		project  string
		wait     bool
		interval time.Duration
		outDir   string
	)
	cmd := &cobra.Command{
		Use:   "text-to-cad [prompt]",
		Short: "Generate a CAD model from a text prompt",
		Long: `Generate a CAD model from a text prompt. The prompt is taken from the
arguments or from stdin. With --wait the generated files are saved to --out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prompt, err := a.readPrompt(args)
			if err != nil {
				return err
			}
			prompt = strings.TrimSpace(prompt)
			if prompt == "" {
				return fmt.Errorf("prompt is empty")
			}
			outputFormat := kittycad.FileExportFormat(output)
			if !outputFormat.IsKnown() {
				return fmt.Errorf("unknown output format %q", output)
			}

			params := kittycad.MLNewTextToCADParams{
				Prompt: kittycad.F(prompt),
				Kcl:    kittycad.F(kcl),
			}
			if project != "" {
				params.ProjectName = kittycad.F(project)
			}
			job, err := a.client.ML.NewTextToCAD(ctx, outputFormat, params)
			if err != nil {
				return err
			}
			a.record(ctx, job.Info(), prompt, "")
			a.log.Debug("text-to-cad submitted", "id", job.ID, "status", job.Status)

			var op kittycad.AsyncAPICallOutput = *job
			if wait && !job.Status.IsTerminal() {
				op, err = a.waitFor(ctx, job.ID.String(), interval)
				if op == nil {
					return err
				}
			}
			info := op.Info()
			saved := ""
			if info.Status == kittycad.ApiCallStatusCompleted {
				if saved, err = a.saveOutputs(ctx, op, outDir); err != nil {
					return err
				}
			}
			a.updateJob(ctx, info.ID.String(), info.Status, saved, info.Error)
			if err != nil {
				return err
			}
			if info.Status == kittycad.ApiCallStatusFailed {
				return fmt.Errorf("text-to-cad %s failed: %s", info.ID, info.Error)
			}
			return a.out.Result(op, asyncHeaders, func() [][]string { return asyncRows(op) })
		},
	}
	cmd.Flags().StringVar(&output, "format", string(kittycad.FileExportFormatGlb), "Output file format")
	cmd.Flags().BoolVar(&kcl, "kcl", true, "Also generate the KCL code of the model")
	cmd.Flags().StringVar(&project, "project", "", "Project the prompt belongs to")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the model and save it")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Time between two status checks with --wait")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for output files (default <data_dir>/outputs)")
	return cmd
}

func newCopilotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copilot",
		Short: "Chat with the copilot, one message per line of stdin",
		Long: `Chat with the copilot. Every line read from stdin is sent as a user
message and the reply is printed once it is complete. "/new" starts a new
conversation and "/bye" ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stream, err := a.client.ML.CopilotWs(ctx)
			if err != nil {
				return err
			}
			defer stream.CloseNow()

			scanner := bufio.NewScanner(a.input())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				var msg kittycad.MLCopilotClientMessage
				switch line {
				case "":
					continue
				case "/new":
					msg = kittycad.NewMLCopilotSystemMessage(kittycad.MLCopilotSystemCommandNew)
				case "/bye":
					return stream.Send(ctx, kittycad.NewMLCopilotSystemMessage(kittycad.MLCopilotSystemCommandBye))
				default:
					msg = kittycad.NewMLCopilotUserMessage(line)
				}
				if err := stream.Send(ctx, msg); err != nil {
					return err
				}
				if msg.Type != kittycad.MLCopilotClientMessageTypeUser {
					continue
				}
				reply, err := a.copilotReply(ctx, stream)
				if err != nil {
					return err
				}
				if a.out.Format == format.JSONFormat {
					err = a.out.JSON(map[string]string{"prompt": line, "reply": reply})
				} else {
					err = a.out.Markdown(reply)
				}
				if err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			if err := stream.Close(); err != nil {
				a.log.Debug("copilot close", "error", err)
			}
			return nil
		},
	}
}

// copilotReply reads frames until the end of the reply and returns its text.
func (a *app) copilotReply(ctx context.Context, stream *wsconn.Stream[kittycad.MLCopilotClientMessage, kittycad.MLCopilotServerMessage]) (string, error) {
	var reply strings.Builder
	for {
		msg, err := stream.Recv(ctx)
		if err != nil {
			if wsconn.IsNormalClose(err) {
				return reply.String(), nil
			}
			return "", err
		}
		switch m := msg.(type) {
		case kittycad.MLCopilotConversationID:
			a.log.Debug("copilot conversation", "id", m.ConversationID)
		case kittycad.MLCopilotDelta:
			reply.WriteString(m.Delta)
		case kittycad.MLCopilotToolOutput:
			a.log.Debug("copilot tool output", "result", string(m.Result))
		case kittycad.MLCopilotInfo:
			a.log.Info(m.Text)
		case kittycad.MLCopilotError:
			io.WriteString(a.stderr, "copilot: "+m.Detail+"\n")
		case kittycad.MLCopilotEndOfStream:
			if m.WholeResponse != "" {
				return m.WholeResponse, nil
			}
			return reply.String(), nil
		case kittycad.MLCopilotServerMessageUnknown:
			a.log.Debug("unknown copilot message", "type", m.Type)
		}
	}
}
