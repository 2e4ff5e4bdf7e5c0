package main

import "context"

func (cli *commandLine) resetPassword(uname, pwd string, it bool) error {
	ctx := context.Background()
	if it {
		return cli.adminSvc.SetPassword(ctx, uname, pwd)
	}
	return cli.instSvc.SetPassword(ctx, uname, pwd)
}
