package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// HostName is the native messaging host name the extension connects to
const HostName = "com.researchtrail.host"

var (
	manifestExtensionID string
	manifestFirefox     bool
	manifestPath        string
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the native messaging host manifest",
	Long: `Print the manifest that registers this binary as the extension's
native messaging host. Save it as ` + HostName + `.json in the browser's
NativeMessagingHosts directory.

Examples:
  researchtrail manifest --extension-id abcdefghijklmnopabcdefghijklmnop
  researchtrail manifest --firefox --extension-id researchtrail@example.org`,
	Args: cobra.NoArgs,
	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.Flags().StringVar(&manifestExtensionID, "extension-id", "", "Extension id allowed to connect")
	manifestCmd.Flags().BoolVar(&manifestFirefox, "firefox", false, "Emit a Firefox manifest (allowed_extensions)")
	manifestCmd.Flags().StringVar(&manifestPath, "path", "", "Host binary path (default: this executable)")
	_ = manifestCmd.MarkFlagRequired("extension-id")
}

type hostManifest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Path              string   `json:"path"`
	Type              string   `json:"type"`
	AllowedOrigins    []string `json:"allowed_origins,omitempty"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
}

func buildManifest(binary, extensionID string, firefox bool) hostManifest {
	m := hostManifest{
		Name:        HostName,
		Description: "Research session recorder",
		Path:        binary,
		Type:        "stdio",
	}
	if firefox {
		m.AllowedExtensions = []string{extensionID}
	} else {
		m.AllowedOrigins = []string{fmt.Sprintf("chrome-extension://%s/", extensionID)}
	}
	return m
}

func runManifest(cmd *cobra.Command, args []string) error {
	binary := manifestPath
	if binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
		binary = exe
	}
	if abs, err := filepath.Abs(binary); err == nil {
		binary = abs
	}

	out, err := json.MarshalIndent(buildManifest(binary, manifestExtensionID, manifestFirefox), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
