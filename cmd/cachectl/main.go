// cachectl inspects and invalidates entries in a cachekit deployment's
// shared Redis store. Local tiers on running nodes are not touched; they
// converge on their own TTLs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/guildhall/cachekit/store"
)

var (
	redisURL string
	prefix   string
)

func connect(ctx context.Context) (store.Store, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	var storeOpts []store.Option
	if prefix != "" {
		storeOpts = append(storeOpts, store.WithPrefix(prefix))
	}
	return store.NewRedis(client, storeOpts...), client, nil
}

var rootCmd = &cobra.Command{
	Use:          "cachectl",
	Short:        "Inspect and invalidate cachekit entries in Redis",
	SilenceUsage: true,
}

var keysCmd = &cobra.Command{
	Use:   "keys <pattern>",
	Short: "List keys matching a pattern (* is the only wildcard)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()
		keys, err := st.Keys(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a key's value as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()
		found, data, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("key %s not found", args[0])
		}
		var val any
		if err := store.Decode(data, &val); err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}
		out, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var delCmd = &cobra.Command{
	Use:   "del <key>",
	Short: "Delete one key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()
		existed, err := st.Del(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !existed {
			fmt.Printf("%s did not exist\n", args[0])
			return nil
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <pattern>",
	Short: "Delete every key matching a pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()
		keys, err := st.Keys(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var deleted int
		for _, key := range keys {
			existed, err := st.Del(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("deleting %s: %w", key, err)
			}
			if existed {
				deleted++
			}
		}
		fmt.Printf("deleted %d keys\n", deleted)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "redis://localhost:6379", "Redis connection URL")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "key prefix used by the deployment")
	rootCmd.AddCommand(keysCmd, getCmd, delCmd, invalidateCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
