package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EvalVis/chesscorner/internal/rules"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Custom rule cards",
	}
	cmd.PersistentFlags().StringP("lang", "l", "en", "Language tag")

	list := &cobra.Command{
		Use:   "list",
		Short: "List every rule for a language",
		Args:  cobra.NoArgs,
		RunE:  runRulesList,
	}

	draw := &cobra.Command{
		Use:   "draw",
		Short: "Draw rules without replacement",
		Args:  cobra.NoArgs,
		RunE:  runRulesDraw,
	}
	draw.Flags().IntP("count", "n", 1, "Number of rules to draw")
	draw.Flags().Uint64("seed", 0, "Random seed (0: nondeterministic)")

	deck := &cobra.Command{
		Use:   "deck",
		Short: "Interactive deck: draw, return <id>, clear, list, quit",
		Args:  cobra.NoArgs,
		RunE:  runRulesDeck,
	}
	deck.Flags().Uint64("seed", 0, "Random seed (0: nondeterministic)")

	cmd.AddCommand(list, draw, deck)
	RootCmd.AddCommand(cmd)
}

func loadRules(cmd *cobra.Command) (string, []rules.Rule, error) {
	lang, _ := cmd.Flags().GetString("lang")
	loader, err := current.ruleLoader(cmd.Context())
	if err != nil {
		return "", nil, err
	}
	return lang, loader.Load(cmd.Context(), lang), nil
}

func writeRules(w io.Writer, rs []rules.Rule) error {
	if jsonOutput() {
		return writeJSON(w, rs)
	}
	for _, r := range rs {
		fmt.Fprintf(w, "%d. %s\n", r.ID, r.Text)
	}
	return nil
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	_, rs, err := loadRules(cmd)
	if err != nil {
		return err
	}
	return writeRules(cmd.OutOrStdout(), rs)
}

func runRulesDraw(cmd *cobra.Command, _ []string) error {
	n, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetUint64("seed")
	if n < 1 {
		return fmt.Errorf("count must be positive, got %d", n)
	}
	lang, rs, err := loadRules(cmd)
	if err != nil {
		return err
	}
	pool := rules.NewPool(lang, rs)
	rng := newRand(seed)
	for i := 0; i < n; i++ {
		if _, ok := pool.Draw(rng); !ok {
			break
		}
	}
	return writeRules(cmd.OutOrStdout(), pool.Revealed())
}

func runRulesDeck(cmd *cobra.Command, _ []string) error {
	seed, _ := cmd.Flags().GetUint64("seed")
	lang, rs, err := loadRules(cmd)
	if err != nil {
		return err
	}
	pool := rules.NewPool(lang, rs)
	rng := newRand(seed)
	out := cmd.OutOrStdout()
	current.log.Info("deck session", "id", pool.ID().String(), "lang", lang, "rules", len(rs))
	fmt.Fprintf(out, "deck %s: %d rules (%s)\n", pool.ID(), len(rs), lang)

	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "draw", "d":
			r, ok := pool.Draw(rng)
			if !ok {
				fmt.Fprintln(out, "no rules left")
				continue
			}
			fmt.Fprintf(out, "%d. %s\n", r.ID, r.Text)
		case "return", "r":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: return <id>")
				continue
			}
			id, err := strconv.Atoi(fields[1])
			if err == nil {
				err = pool.ReturnOne(id)
			}
			if err != nil {
				fmt.Fprintf(out, "cannot return %s: %v\n", fields[1], err)
				continue
			}
			fmt.Fprintf(out, "returned %d\n", id)
		case "clear", "c":
			pool.ReturnAll()
			fmt.Fprintln(out, "all rules returned")
		case "list", "l":
			fmt.Fprintf(out, "available %d, revealed:", len(pool.Available()))
			for _, r := range pool.Revealed() {
				fmt.Fprintf(out, " %d", r.ID)
			}
			fmt.Fprintln(out)
		case "quit", "q", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
	return sc.Err()
}
