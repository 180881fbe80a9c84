package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoryAddCommand(rt *runtime) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "cadd",
		Short: "Add an empty category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.app.Categories.AddCategory(cmd.Context(), user, name); err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "Category %q added.\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "category", "c", "", "category name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newCategoryShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cshow",
		Short: "List the user's categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}
			names, err := rt.app.Categories.ListCategories(cmd.Context(), user)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(rt.out(), "No categories found.")
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(rt.out(), n)
			}
			return nil
		},
	}
}

func newCategoryDeleteCommand(rt *runtime) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "cdelete",
		Short: "Delete a category together with its units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.confirm(fmt.Sprintf("Delete category %q and all of its units?", name)); err != nil {
				return err
			}
			if err := rt.app.Categories.DeleteCategory(cmd.Context(), user, name); err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "Category %q deleted.\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "category", "c", "", "category name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
