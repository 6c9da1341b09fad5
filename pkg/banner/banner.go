package banner

import (
	"fmt"

	"draftsync/pkg/config"
)

const banner = `
██████╗ ██████╗  █████╗ ███████╗████████╗███████╗██╗   ██╗███╗   ██╗ ██████╗
██╔══██╗██╔══██╗██╔══██╗██╔════╝╚══██╔══╝██╔════╝╚██╗ ██╔╝████╗  ██║██╔════╝
██║  ██║██████╔╝███████║█████╗     ██║   ███████╗ ╚████╔╝ ██╔██╗ ██║██║
██║  ██║██╔══██╗██╔══██║██╔══╝     ██║   ╚════██║  ╚██╔╝  ██║╚██╗██║██║
██████╔╝██║  ██║██║  ██║██║        ██║   ███████║   ██║   ██║ ╚████║╚██████╗
╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝        ╚═╝   ╚══════╝   ╚═╝   ╚═╝  ╚═══╝ ╚═════╝
`

// PrintWithEff prints the startup banner with the effective runtime
// configuration so operators can verify what the daemon is running with.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", eff.Addr)
	fmt.Printf("DB Path:  %s\n", eff.DBPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if eff.Source != "" {
		fmt.Printf("Config sources: %s\n", eff.Source)
	}

	if eff.Config != nil {
		fmt.Println("\n== Sync =======================================================")
		if eff.Config.Remote.ContentURL != "" {
			fmt.Printf("Content service: %s\n", eff.Config.Remote.ContentURL)
		} else {
			fmt.Println("Content service: NOT SET (sync runs will fail; set remote.content_url)")
		}
		if eff.Config.Remote.MediaURL != "" {
			fmt.Printf("Media service:   %s\n", eff.Config.Remote.MediaURL)
		} else {
			fmt.Println("Media service:   not set (drafts with local media cannot sync)")
		}
		ar := eff.Config.Sync.AutoResolve
		if ar == "" {
			ar = "caption_only"
		}
		fmt.Printf("Auto-resolve:    %s\n", ar)
		if eff.Config.Sync.Periodic.Enabled {
			fmt.Printf("Periodic sync:   enabled (%s)\n", eff.Config.Sync.Periodic.Cron)
		} else {
			fmt.Println("Periodic sync:   disabled")
		}
		if len(eff.Config.Security.APIKeys) > 0 {
			fmt.Printf("API keys:        %d configured\n", len(eff.Config.Security.APIKeys))
		} else {
			fmt.Println("API keys:        none (open control API; fine for localhost only)")
		}
	}

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://%s/v1/drafts' -d '{\"title\":\"hello\",\"caption\":\"first post\"}'\n", eff.Addr)
	fmt.Printf("curl -X POST 'http://%s/v1/sync'\n", eff.Addr)
	fmt.Printf("curl 'http://%s/v1/sync/stats'\n", eff.Addr)

	fmt.Println("\n== Logs: =================================================")
}
