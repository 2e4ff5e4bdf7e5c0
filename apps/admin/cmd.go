package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/itadmin"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	instSvc    *institute.Service
	adminSvc   *itadmin.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, version, redo, reset, ...)")
	fmt.Println("  createinstitute -username USERNAME -name NAME [-email EMAIL] - create an institute")
	fmt.Println("  resetpassword -username USERNAME [-it] - reset an institute's (or IT admin's) password")
	fmt.Println("  createitadmin -username USERNAME - create an IT admin")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createInstituteCmd := flag.NewFlagSet("createinstitute", flag.ExitOnError)
	createInstituteUname := createInstituteCmd.String("username", "", "The institute's username (URL slug). The password will be prompted next.")
	createInstituteName := createInstituteCmd.String("name", "", "The institute's display name.")
	createInstituteEmail := createInstituteCmd.String("email", "", "The institute's contact email.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The username. The password will be prompted next.")
	resetPasswordIT := resetPasswordCmd.Bool("it", false, "Reset an IT admin's password instead of an institute's.")

	createITAdminCmd := flag.NewFlagSet("createitadmin", flag.ExitOnError)
	createITAdminUname := createITAdminCmd.String("username", "", "The IT admin's username. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createinstitute":
		if err := createInstituteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createInstituteUname == "" || *createInstituteName == "" {
			createInstituteCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(createInstituteCmd)
		if err != nil {
			return err
		}
		return cli.createInstitute(*createInstituteUname, *createInstituteName, *createInstituteEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd, *resetPasswordIT)
	case "createitadmin":
		if err := createITAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createITAdminUname == "" {
			createITAdminCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(createITAdminCmd)
		if err != nil {
			return err
		}
		return cli.createITAdmin(*createITAdminUname, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
