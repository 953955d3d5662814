package main

import (
	"github.com/ostr00000/overwatch/cmd/trendctl/cmd"
	"github.com/ostr00000/overwatch/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	cmd.Execute()
}
