package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage the todo tree",
}

// todo list
var todoListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Print the todo tree",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runTodoList,
}

var (
	todoListJSON          bool
	todoListHideCompleted bool
	todoListWidth         int
)

// todo add
var todoAddCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Add a todo at the end of its group",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoAdd,
}

var (
	todoAddParent int64
	todoAddCount  int
)

// todo done
var todoDoneCmd = &cobra.Command{
	Use:   "done <id>...",
	Short: "Check one or more todos and everything below them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoSetCompleted(true),
}

// todo undo
var todoUndoCmd = &cobra.Command{
	Use:   "undo <id>...",
	Short: "Uncheck one or more todos and everything below them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoSetCompleted(false),
}

// todo edit
var todoEditCmd = &cobra.Command{
	Use:   "edit <id> <text>...",
	Short: "Replace the text of a todo",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTodoEdit,
}

// todo rm
var todoRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Short:   "Delete todos with all their subtasks",
	Aliases: []string{"delete"},
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTodoRm,
}

// todo mv
var todoMvCmd = &cobra.Command{
	Use:   "mv <id>",
	Short: "Move a todo to a new parent and position",
	Long: `Move a todo so that it ends up at --position (0-based) among the
children of --parent. Without --parent, or with --parent 0, the todo
becomes a root.`,
	Args: cobra.ExactArgs(1),
	RunE: runTodoMv,
}

var (
	todoMvParent   int64
	todoMvPosition int
)

// todo count
var todoCountCmd = &cobra.Command{
	Use:   "count <id> <n|clear>",
	Short: "Start or clear a countdown",
	Long: `Give a todo a countdown of n. The todo reopens and completes again when
the count reaches zero. "clear" or 0 removes the countdown.`,
	Args: cobra.ExactArgs(2),
	RunE: runTodoCount,
}

// todo dec
var todoDecCmd = &cobra.Command{
	Use:   "dec <id>...",
	Short: "Count a countdown down by one",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoDec,
}

// todo reset
var todoResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Uncheck every todo and restore every countdown",
	Args:  cobra.NoArgs,
	RunE:  runTodoReset,
}

// todo stats
var todoStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print how many todos are done",
	Args:  cobra.NoArgs,
	RunE:  runTodoStats,
}

func init() {
	rootCmd.AddCommand(todoCmd)
	todoCmd.AddCommand(
		todoListCmd, todoAddCmd, todoDoneCmd, todoUndoCmd, todoEditCmd,
		todoRmCmd, todoMvCmd, todoCountCmd, todoDecCmd, todoResetCmd, todoStatsCmd,
	)

	todoListCmd.Flags().BoolVar(&todoListJSON, "json", false, "print the flat list as JSON")
	todoListCmd.Flags().BoolVar(&todoListHideCompleted, "hide-completed", false, "leave out completed todos")
	todoListCmd.Flags().IntVar(&todoListWidth, "width", 0, "wrap width (default: terminal width or display.width)")

	todoAddCmd.Flags().Int64Var(&todoAddParent, "parent", 0, "parent todo id")
	todoAddCmd.Flags().IntVar(&todoAddCount, "count", 0, "start a countdown of this many")

	todoMvCmd.Flags().Int64Var(&todoMvParent, "parent", 0, "new parent todo id (0 for root)")
	todoMvCmd.Flags().IntVar(&todoMvPosition, "position", 0, "final 0-based position among the new siblings")
	_ = todoMvCmd.MarkFlagRequired("position")
}

func runTodoList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		todos, err := s.GetTodos(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if todoListJSON {
			if todos == nil {
				todos = []model.TodoNode{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(todos)
		}

		width := todoListWidth
		if width <= 0 {
			width = outputWidth(cfg)
		}
		printTodoTree(out, model.NewForest(todos).Trees(), treeOptions{
			Width:         width,
			HideCompleted: todoListHideCompleted,
		})
		return nil
	})
}

func runTodoAdd(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	var parentID *int64
	if todoAddParent != 0 {
		parentID = &todoAddParent
	}
	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		id, err := s.CreateTodoWithCount(ctx, text, parentID, &todoAddCount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added #%d\n", id)
		return nil
	})
}

func runTodoSetCompleted(completed bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
			for _, id := range ids {
				if err := requireTodo(ctx, s, id); err != nil {
					return err
				}
				if err := s.SetTodoCompleted(ctx, id, completed); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

func runTodoEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")

	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		if err := requireTodo(ctx, s, id); err != nil {
			return err
		}
		return s.UpdateTodoText(ctx, id, text)
	})
}

func runTodoRm(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		for _, id := range ids {
			// Deleting an ancestor earlier in the list may already have
			// removed this one; that is fine.
			if err := s.DeleteTodo(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func runTodoMv(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var parentID *int64
	if todoMvParent != 0 {
		parentID = &todoMvParent
	}

	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		if err := requireTodo(ctx, s, id); err != nil {
			return err
		}
		return s.MoveTodo(ctx, id, parentID, todoMvPosition)
	})
}

func runTodoCount(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var target *int
	if args[1] != "clear" {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count %q: want a number or \"clear\"", args[1])
		}
		target = &n
	}

	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		if err := requireTodo(ctx, s, id); err != nil {
			return err
		}
		return s.SetTodoCount(ctx, id, target)
	})
}

func runTodoDec(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		for _, id := range ids {
			if err := requireTodo(ctx, s, id); err != nil {
				return err
			}
			if err := s.DecrementTodo(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func runTodoReset(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		return s.ResetAllTodos(ctx)
	})
}

func runTodoStats(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		st, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d/%d done, %d counting\n", st.Completed, st.Total, st.Counters)
		return nil
	})
}

// requireTodo turns a missing id into an error. The store itself treats
// mutations of missing ids as no-ops.
func requireTodo(ctx context.Context, s store.Store, id int64) error {
	_, err := s.GetTodoByID(ctx, id)
	return err
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", arg)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
