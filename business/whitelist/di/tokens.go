// Package di contains dependency injection tokens for the whitelist context.
package di

import (
	"github.com/fd1az/whitelist-sync/business/whitelist/app"
	"github.com/fd1az/whitelist-sync/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Flow      = di.NewToken[*app.Flow]("whitelist.Flow")
	Dashboard = di.NewToken[*app.Dashboard]("whitelist.Dashboard")
)

// Private dependency tokens - internal to whitelist module
var (
	AccessController = di.NewToken[app.AccessController]("whitelist:access-controller")
	Reporter         = di.NewToken[app.Reporter]("whitelist:reporter")
)

func GetFlow(c di.ServiceRegistry) *app.Flow {
	return di.GetToken(c, Flow)
}

func GetDashboard(c di.ServiceRegistry) *app.Dashboard {
	return di.GetToken(c, Dashboard)
}

func GetAccessController(c di.ServiceRegistry) app.AccessController {
	return di.GetToken(c, AccessController)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
