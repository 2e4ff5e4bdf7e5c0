package main

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
)

// createInstitute creates an institute along with its default configuration.
func (cli *commandLine) createInstitute(uname, name, email, pwd string) error {
	ni := institute.NewInstitute{
		Username: slug.Make(uname),
		Password: pwd,
		Name:     name,
		Email:    email,
	}
	if err := ni.Validate(cli.validate); err != nil {
		if vErr, ok := core.IsValidationError(core.TranslateValidationErrors(err, cli.translator)); ok {
			return fmt.Errorf("invalid %s: %s", vErr.Fields[0].Field, vErr.Fields[0].Error)
		}
		return err
	}

	inst, err := cli.instSvc.Create(context.Background(), ni)
	if err != nil {
		return err
	}
	fmt.Printf("Institute %q created: /institute/%s\n", inst.Name, inst.Username)
	return nil
}

func (cli *commandLine) createITAdmin(uname, pwd string) error {
	admin, err := cli.adminSvc.Create(context.Background(), uname, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("IT admin %q created\n", admin.Username)
	return nil
}
