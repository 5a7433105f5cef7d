package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tracelight/casegate/internal/client"
	"github.com/tracelight/casegate/internal/version"
)

// resolveServer returns the server URL from the flag or the
// CASEGATE_SERVER_URL env var. Prints a warning to stderr when falling back
// to the env var.
func resolveServer(cmd *cobra.Command, flagValue string) (string, error) {
	normalize := func(v string) string {
		for len(v) > 0 && v[len(v)-1] == '/' {
			v = v[:len(v)-1]
		}
		return v
	}
	if cmd.Flags().Changed("server") {
		return normalize(flagValue), nil
	}
	if v := os.Getenv("CASEGATE_SERVER_URL"); v != "" {
		fmt.Fprintf(os.Stderr, "casegate: WARNING: using server URL from CASEGATE_SERVER_URL environment variable\n")
		return normalize(v), nil
	}
	return "", fmt.Errorf("server URL required: use --server flag or set CASEGATE_SERVER_URL")
}

func resolveKey(cmd *cobra.Command, flagValue string) (string, error) {
	if cmd.Flags().Changed("key") {
		return flagValue, nil
	}
	if v := os.Getenv("CASEGATE_GATEWAY_KEY"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("gateway key required: use --key flag or set CASEGATE_GATEWAY_KEY")
}

func newClient(cmd *cobra.Command, serverURL, key string) (*client.Client, error) {
	srv, err := resolveServer(cmd, serverURL)
	if err != nil {
		return nil, err
	}
	k, err := resolveKey(cmd, key)
	if err != nil {
		return nil, err
	}
	return client.New(srv, k), nil
}

func addConnFlags(cmd *cobra.Command, serverURL, key *string) {
	cmd.Flags().StringVar(serverURL, "server", "", "Casegate server URL (or set CASEGATE_SERVER_URL)")
	cmd.Flags().StringVar(key, "key", "", "Gateway API key (or set CASEGATE_GATEWAY_KEY)")
}

func printJSON(raw json.RawMessage) error {
	var buf any
	if err := json.Unmarshal(raw, &buf); err != nil {
		// Not JSON, print as-is.
		fmt.Println(string(raw))
		return nil
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "casegate",
		Short:   "Casegate - admin CLI for the case-management resource gateway",
		Version: version.Version,
	}
	rootCmd.SetVersionTemplate(version.String("casegate") + "\n")

	rootCmd.AddCommand(newSecretCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newDocCmd())
	rootCmd.AddCommand(newMediaCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Read broker secrets and verify the access password",
	}

	var serverURL, key string
	readCmd := &cobra.Command{
		Use:   "read <name>",
		Short: "Print a provisioned secret value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, serverURL, key)
			if err != nil {
				return err
			}
			val, err := c.GetSecret(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(val)
			return nil
		},
	}
	addConnFlags(readCmd, &serverURL, &key)

	var vServerURL, vKey string
	verifyCmd := &cobra.Command{
		Use:   "verify-password",
		Short: "Check an access password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, vServerURL, vKey)
			if err != nil {
				return err
			}
			pw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read password from stdin: %w", err)
			}
			ok, err := c.VerifyPassword(cmd.Context(), string(pw))
			if err != nil {
				return err
			}
			fmt.Printf("ok=%v\n", ok)
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}
	addConnFlags(verifyCmd, &vServerURL, &vKey)

	cmd.AddCommand(readCmd, verifyCmd)
	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect and edit examiner profiles",
	}

	var gServerURL, gKey string
	getCmd := &cobra.Command{
		Use:   "get <uid>",
		Short: "Print a profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, gServerURL, gKey)
			if err != nil {
				return err
			}
			raw, err := c.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	addConnFlags(getCmd, &gServerURL, &gKey)

	var pServerURL, pKey, updateJSON string
	putCmd := &cobra.Command{
		Use:   "put <uid>",
		Short: "Merge a partial profile update (JSON via --data or stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, pServerURL, pKey)
			if err != nil {
				return err
			}
			data := []byte(updateJSON)
			if updateJSON == "" {
				data, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read update from stdin: %w", err)
				}
			}
			raw, err := c.PutProfile(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	addConnFlags(putCmd, &pServerURL, &pKey)
	putCmd.Flags().StringVar(&updateJSON, "data", "", "Partial profile JSON (reads stdin when omitted)")

	var dServerURL, dKey string
	delCmd := &cobra.Command{
		Use:   "delete <uid>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, dServerURL, dKey)
			if err != nil {
				return err
			}
			return c.DeleteProfile(cmd.Context(), args[0])
		},
	}
	addConnFlags(delCmd, &dServerURL, &dKey)

	cmd.AddCommand(getCmd, putCmd, delCmd)
	return cmd
}

func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Read and write document objects",
	}

	var gServerURL, gKey string
	getCmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print a document object (paths end with data.json)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, gServerURL, gKey)
			if err != nil {
				return err
			}
			data, err := c.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}
	addConnFlags(getCmd, &gServerURL, &gKey)

	var pServerURL, pKey string
	putCmd := &cobra.Command{
		Use:   "put <path>",
		Short: "Replace a document object with JSON from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, pServerURL, pKey)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read document from stdin: %w", err)
			}
			return c.PutDocument(cmd.Context(), args[0], data)
		},
	}
	addConnFlags(putCmd, &pServerURL, &pKey)

	var dServerURL, dKey string
	delCmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a document object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, dServerURL, dKey)
			if err != nil {
				return err
			}
			return c.DeleteDocument(cmd.Context(), args[0])
		},
	}
	addConnFlags(delCmd, &dServerURL, &dKey)

	cmd.AddCommand(getCmd, putCmd, delCmd)
	return cmd
}

func newMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Media gateway helpers",
	}

	var serverURL, key string
	signCmd := &cobra.Command{
		Use:   "sign <path>",
		Short: "Print a time-limited signed URL for a media path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, serverURL, key)
			if err != nil {
				return err
			}
			url, err := c.SignMedia(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}
	addConnFlags(signCmd, &serverURL, &key)

	cmd.AddCommand(signCmd)
	return cmd
}
