package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xndadelin/Grosharing/internal/house"
	"github.com/xndadelin/Grosharing/internal/model"
)

var completeCmd = &cobra.Command{
	Use:   "complete <item id>",
	Short: "Mark an item as purchased",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args[0], true)
	},
}

var uncompleteCmd = &cobra.Command{
	Use:   "uncomplete <item id>",
	Short: "Put a purchased item back on the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args[0], false)
	},
}

func runToggle(cmd *cobra.Command, arg string, completed bool) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", arg)
	}

	st, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	user := st.Snapshot().User

	err = st.SetCompletion(cmd.Context(), id, completed, user.FullName)
	switch {
	case errors.Is(err, house.ErrNoTransition):
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do: item is already", house.StatusOf(itemByID(st, id)))
		return nil
	case errors.Is(err, house.ErrConflict):
		fmt.Fprintln(cmd.ErrOrStderr(), "Someone else changed this item; the list has been refreshed.")
	case err != nil:
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatItem(itemByID(st, id)))
	return nil
}

func itemByID(st *house.Store, id int64) model.GroceryItem {
	for _, it := range st.Snapshot().Items {
		if it.ID == id {
			return it
		}
	}
	return model.GroceryItem{ID: id}
}
