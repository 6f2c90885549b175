// Package autoload initializes the global logger from LOG_* environment
// variables via a blank import.
package autoload

import (
	configx "github.com/tanakrit/eduadmin-agent/pkg/config"
	logx "github.com/tanakrit/eduadmin-agent/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
