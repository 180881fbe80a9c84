package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/services"
)

// unitFlags are the --login/--name pair that address a unit.
type unitFlags struct {
	login string
	name  string
}

func (f *unitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.login, "login", "l", "", "login of the unit")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "name of the unit")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("name")
}

func newUnitAddCommand(rt *runtime) *cobra.Command {
	var (
		unit     unitFlags
		secret   string
		category string
		url      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a unit (login with secret)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pw, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("secret") {
				b, err := GetNewPassword("Password for the login", rt.io.Err)
				if err != nil {
					return err
				}
				defer cryptox.Wipe(b)
				secret = string(b)
			}

			err = rt.app.Units.AddUnit(cmd.Context(), services.NewUnit{
				Username: user,
				Password: pw,
				Name:     unit.name,
				Login:    unit.login,
				Secret:   secret,
				Category: category,
				URL:      url,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "Unit %q (login %q) added.\n", unit.name, unit.login)
			return nil
		},
	}
	unit.register(cmd)
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "secret to store (prompted when omitted)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category, created when missing (default \"default\")")
	cmd.Flags().StringVar(&url, "url", "", "url of the resource")
	return cmd
}

func newUnitGetCommand(rt *runtime) *cobra.Command {
	var (
		unit      unitFlags
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Copy a unit's secret to the clipboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pw, err := rt.credentials()
			if err != nil {
				return err
			}
			secret, err := rt.app.Units.GetUnitSecret(cmd.Context(), user, pw, unit.name, unit.login)
			if err != nil {
				return err
			}
			if printOnly {
				fmt.Fprintln(rt.out(), secret)
				return nil
			}
			if err := copyToClipboard(secret); err != nil {
				return fmt.Errorf("copy to clipboard (use --print instead): %w", err)
			}
			fmt.Fprintln(rt.out(), "Secret copied to the clipboard.")
			return nil
		},
	}
	unit.register(cmd)
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the secret instead of copying it")
	return cmd
}

func newUnitShowCommand(rt *runtime) *cobra.Command {
	var (
		category     string
		withCategory bool
		withURL      bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the user's units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}
			units, err := rt.app.Units.ListUnits(cmd.Context(), user, category)
			if err != nil {
				return err
			}
			if len(units) == 0 {
				fmt.Fprintln(rt.out(), "No units found.")
				return nil
			}

			w := tabwriter.NewWriter(rt.out(), 0, 0, 2, ' ', 0)
			header := "NAME\tLOGIN"
			if withCategory {
				header += "\tCATEGORY"
			}
			if withURL {
				header += "\tURL"
			}
			fmt.Fprintln(w, header)
			for _, u := range units {
				row := u.Name + "\t" + u.Login
				if withCategory {
					row += "\t" + u.Category
				}
				if withURL {
					row += "\t" + u.URL
				}
				fmt.Fprintln(w, row)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only units of this category")
	cmd.Flags().BoolVar(&withCategory, "with-category", false, "add a category column")
	cmd.Flags().BoolVar(&withURL, "with-url", false, "add a url column")
	return cmd
}

func newUnitUpdateCommand(rt *runtime) *cobra.Command {
	var (
		unit                         unitFlags
		newName, newLogin, newSecret string
		newCategory, newURL          string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change a unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pw, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}

			var ch services.UnitChanges
			set := func(flag string, dst **string, v *string) {
				if cmd.Flags().Changed(flag) {
					*dst = v
				}
			}
			set("new-name", &ch.Name, &newName)
			set("new-login", &ch.Login, &newLogin)
			set("new-secret", &ch.Secret, &newSecret)
			set("new-category", &ch.Category, &newCategory)
			set("new-url", &ch.URL, &newURL)

			ref := services.UnitRef{Username: user, Password: pw, Name: unit.name, Login: unit.login}
			if err := rt.app.Units.UpdateUnit(cmd.Context(), ref, ch); err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "Unit %q (login %q) updated.\n", unit.name, unit.login)
			return nil
		},
	}
	unit.register(cmd)
	cmd.Flags().StringVar(&newName, "new-name", "", "new name")
	cmd.Flags().StringVar(&newLogin, "new-login", "", "new login")
	cmd.Flags().StringVar(&newSecret, "new-secret", "", "new secret")
	cmd.Flags().StringVar(&newCategory, "new-category", "", "move to this category, created when missing")
	cmd.Flags().StringVar(&newURL, "new-url", "", "new url")
	return cmd
}

func newUnitDeleteCommand(rt *runtime) *cobra.Command {
	var unit unitFlags

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.confirm(fmt.Sprintf("Delete unit %q (login %q)?", unit.name, unit.login)); err != nil {
				return err
			}
			if err := rt.app.Units.DeleteUnit(cmd.Context(), user, unit.name, unit.login); err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "Unit %q (login %q) deleted.\n", unit.name, unit.login)
			return nil
		},
	}
	unit.register(cmd)
	return cmd
}
