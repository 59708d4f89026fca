package cli

import (
	"bufio"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/smartsearch/internal/backend"
	"github.com/liliang-cn/smartsearch/internal/service"
)

// chatCmd is the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "start a conversational search session",
	Long: `Start a line-mode search session over the backend socket.

Each line you type is sent as a query. Products stream in under the query
as the backend finds them. Type /reset to clear the session, /quit to exit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	socket := backend.NewSocketClient(backend.SocketConfig{
		URL:            cfg.Backend.SocketURL,
		DialTimeout:    cfg.Backend.DialTimeout,
		ReconnectDelay: cfg.Backend.ReconnectDelay,
		PingInterval:   cfg.Backend.PingInterval,
	}, logger)

	phrases := cfg.Session.TerminalPhrases
	if len(phrases) == 0 {
		phrases = service.DefaultTerminalPhrases
	}
	svc := service.NewSessionService(socket, service.NewTerminalClassifier(phrases), logger)
	socket.SetHandler(svc)

	updates, unsubscribe := svc.Subscribe()
	rendered := make(chan struct{})
	view := newTranscriptView(cmd.OutOrStdout())
	go func() {
		defer close(rendered)
		for snap := range updates {
			view.Render(snap)
		}
	}()

	socketDone := make(chan struct{})
	go func() {
		defer close(socketDone)
		socket.Run(ctx)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "connecting to %s ...\n", cfg.Backend.SocketURL)
	fmt.Fprintf(cmd.OutOrStdout(), "try: %s\n", strings.Join(service.SuggestionQueries, " | "))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			switch text := strings.TrimSpace(line); text {
			case "":
			case "/quit", "/exit":
				break loop
			case "/reset":
				svc.Reset()
			default:
				if err := svc.SubmitQuery(ctx, text); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
			}
		}
	}

	stop()
	<-socketDone
	unsubscribe()
	<-rendered
	return nil
}
