// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "SCIL-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "scil.log")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.sessionttlmin", 480)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "scil.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "scil")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "scil")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("audit.year", time.Now().Year())
	viper.SetDefault("audit.fullcycleperiods", 24)
}
