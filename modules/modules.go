package modules

import (
	"github.com/wiresbot/wires/modules/plugins"
	"github.com/wiresbot/wires/modules/plugins/highlights"
)

var (
	pluginCache         map[string]*Plugin
	extendedPluginCache map[string]*ExtendedPlugin

	PluginList = []Plugin{
		&plugins.Tickets{},
	}

	PluginExtendedList = []ExtendedPlugin{
		&highlights.Handler{},
	}
)
