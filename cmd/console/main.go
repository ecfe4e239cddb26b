// Package main implements the Research Study Chat Console entry point.
// This file handles command-line argument parsing, dependency injection, and
// launching the conversation view. Participants normally receive a launch
// command with their study identifiers filled in; the identifiers can also
// come from a saved profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studychat/console/internal/config"
	"github.com/studychat/console/internal/conversation"
	"github.com/studychat/console/internal/exchange"
	"github.com/studychat/console/internal/interfaces"
	"github.com/studychat/console/internal/logging"
	"github.com/studychat/console/internal/protocol"
	"github.com/studychat/console/internal/session"
	"github.com/studychat/console/internal/ui/chat"
)

// Application metadata
const (
	Version     = "1.0.0"
	ProgramName = "Research Study Chat Console"
)

// CommandLineArgs represents parsed command-line arguments
type CommandLineArgs struct {
	Host              string
	Profile           string
	Theme             string
	ParticipantID     string
	StudyID           string
	ProlificSessionID string
	PreSurveyToken    string
	ExperimentID      string
	ShowHelp          bool
	ShowVersion       bool
}

func main() {
	args := parseCommandLineArgs()

	if handleEarlyExitConditions(args) {
		return
	}

	logger := initializeLogging(args)

	profile, err := resolveProfile(args, logger)
	if err != nil {
		logger.Error("Invalid configuration", "error", err.Error())
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if err := runConsole(profile, logger); err != nil {
		logger.Error("Application terminated with error", "error", err.Error())
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Application shutdown completed")
}

// parseCommandLineArgs processes command-line arguments
func parseCommandLineArgs() CommandLineArgs {
	var args CommandLineArgs

	flag.StringVar(&args.Host, "host", "", "Host of the study backend (e.g., localhost:8000)")
	flag.StringVar(&args.Profile, "profile", "", "Profile name from the configuration file")
	flag.StringVar(&args.Theme, "theme", "", "Transcript color theme name")
	flag.StringVar(&args.ParticipantID, "pid", "", "Prolific participant ID")
	flag.StringVar(&args.StudyID, "study", "", "Prolific study ID")
	flag.StringVar(&args.ProlificSessionID, "prolific-session", "", "Prolific session ID")
	flag.StringVar(&args.PreSurveyToken, "qr-pre", "", "Pre-survey response token")
	flag.StringVar(&args.ExperimentID, "experiment", "", "Experiment ID assigned by the research team")
	flag.BoolVar(&args.ShowHelp, "help", false, "Display usage information and exit")
	flag.BoolVar(&args.ShowVersion, "version", false, "Display version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", ProgramName, Version)
		fmt.Fprintf(os.Stderr, "A terminal chat client for participants in research studies. It opens a\n")
		fmt.Fprintf(os.Stderr, "backend chat session tied to your study identifiers and exchanges\n")
		fmt.Fprintf(os.Stderr, "turn-numbered messages with the study's conversational AI.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --profile pilot                                  # use the saved 'pilot' profile\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host localhost:8000 --pid P123 --experiment E1 # direct launch\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nConfiguration file location: ~/.config/studychat/profiles.yaml\n")
	}

	flag.Parse()
	return args
}

// handleEarlyExitConditions processes help and version flags that cause immediate exit
func handleEarlyExitConditions(args CommandLineArgs) bool {
	if args.ShowHelp {
		flag.Usage()
		return true
	}

	if args.ShowVersion {
		fmt.Printf("%s v%s\n", ProgramName, Version)
		return true
	}

	return false
}

// initializeLogging sets up the logging system based on environment and arguments
func initializeLogging(args CommandLineArgs) *logging.Logger {
	logConfig := logging.DefaultConfig()

	if os.Getenv("STUDYCHAT_DEBUG") == "true" {
		logConfig.Level = logging.DebugLevel
		logConfig.Format = "json"
	}
	if logFile := os.Getenv("STUDYCHAT_LOG_FILE"); logFile != "" {
		logConfig.Output = logFile
	}

	if err := logging.InitGlobalLogger(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger := logging.GetGlobalLogger()
	logger.Info("Research Study Chat Console starting", "version", Version)
	return logger
}

// resolveProfile merges the saved profile (if any) with command-line overrides
// into the effective configuration for this run
func resolveProfile(args CommandLineArgs, logger *logging.Logger) (*interfaces.Profile, error) {
	var profile *interfaces.Profile

	if args.Profile != "" {
		configManager, err := config.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config manager: %w", err)
		}

		logger.LogConfigLoad(configManager.GetConfigPath(), args.Profile)
		profile, err = configManager.LoadProfile(args.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile '%s': %w", args.Profile, err)
		}
	} else {
		profile = &interfaces.Profile{Name: "direct"}
	}

	// Command-line values override profile values field by field
	if args.Host != "" {
		profile.Host = args.Host
	}
	if args.Theme != "" {
		profile.Theme = args.Theme
	}
	if args.ParticipantID != "" {
		profile.Participant.ParticipantID = args.ParticipantID
	}
	if args.StudyID != "" {
		profile.Participant.StudyID = args.StudyID
	}
	if args.ProlificSessionID != "" {
		profile.Participant.ProlificSessionID = args.ProlificSessionID
	}
	if args.PreSurveyToken != "" {
		profile.Participant.PreSurveyToken = args.PreSurveyToken
	}
	if args.ExperimentID != "" {
		profile.Participant.ExperimentID = args.ExperimentID
	}

	if strings.TrimSpace(profile.Host) == "" {
		return nil, fmt.Errorf("no backend host configured: pass --host or use a profile")
	}
	if strings.TrimSpace(profile.Participant.ParticipantID) == "" {
		return nil, fmt.Errorf("no participant id configured: pass --pid or use a profile")
	}
	if strings.TrimSpace(profile.Participant.ExperimentID) == "" {
		return nil, fmt.Errorf("no experiment id configured: pass --experiment or use a profile")
	}

	return profile, nil
}

// runConsole wires the dependencies and runs the conversation view
func runConsole(profile *interfaces.Profile, logger *logging.Logger) error {
	client, err := protocol.NewClient(profile.Host)
	if err != nil {
		return fmt.Errorf("failed to initialize backend client: %w", err)
	}

	// Reachability probe before the TUI takes over the terminal. A failed
	// probe is not fatal: the session start surfaces the failure in the UI.
	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	health, err := client.CheckHealth(probeCtx)
	cancel()
	if err != nil {
		logger.Warn("Backend health probe failed; continuing", "host", profile.Host, "error", err.Error())
	} else {
		logger.Debug("Backend reachable", "status", health.Status)
	}

	sessionManager, err := session.NewManager(client, profile.Participant)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	transcript := conversation.NewTranscript()

	exchanger, err := exchange.NewExchanger(client, sessionManager, transcript)
	if err != nil {
		return fmt.Errorf("failed to initialize exchanger: %w", err)
	}

	var configManager interfaces.ConfigManager
	if cm, err := config.NewManager(); err == nil {
		configManager = cm
	}

	model := chat.NewChatModel(profile, sessionManager, exchanger, transcript, configManager)

	logger.Info("Starting conversation view", "host", profile.Host)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
