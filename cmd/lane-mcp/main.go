package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/lanefinder/internal/camera"
	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/logging"
	"github.com/ironsheep/lanefinder/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("lane-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("lane-mcp - MCP server for camera lane detection")
			fmt.Println()
			fmt.Println("Usage: lane-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  LANE_MCP_CALIBRATION=<file>  Camera calibration JSON (required)")
			fmt.Println("  LANE_MCP_CONFIG=<file>       Pipeline configuration JSON")
			fmt.Println("                               (default: ~/.config/lanefinder/config.json if present)")
			fmt.Println("  LANE_MCP_LOG_LEVEL=debug     Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	logLevel := os.Getenv("LANE_MCP_LOG_LEVEL")
	if logLevel == "debug" {
		logging.SetDebug(true)
		log.Printf("Lane MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg, err := loadConfig(os.Getenv("LANE_MCP_CONFIG"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if logging.DebugEnabled() {
		if data, err := json.Marshal(cfg); err == nil {
			log.Printf("Effective config: %s", data)
		}
	}

	calibPath := os.Getenv("LANE_MCP_CALIBRATION")
	if calibPath == "" {
		log.Fatalf("Calibration error: %v: LANE_MCP_CALIBRATION is not set", camera.ErrCalibrationUnavailable)
	}
	calib, err := camera.LoadCalibrationFile(calibPath)
	if err != nil {
		log.Fatalf("Calibration error: %v", err)
	}

	srv, err := server.New(cfg, calib)
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadConfig reads path, or the default config file when path is empty and
// that file exists, or falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	logging.Debugf("loaded config from %s", path)
	return cfg, nil
}
