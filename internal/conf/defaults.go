// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "radiowatch")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "radiowatch.log")
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("scanners.wifi.enabled", true)
	viper.SetDefault("scanners.wifi.interval", 10.0)
	viper.SetDefault("scanners.wifi.signalfloordbm", -90.0)

	viper.SetDefault("scanners.bluetooth.enabled", true)
	viper.SetDefault("scanners.bluetooth.interval", 12.0)
	viper.SetDefault("scanners.bluetooth.signalfloordbm", -95.0)

	viper.SetDefault("scanners.cell.enabled", true)
	viper.SetDefault("scanners.cell.interval", 30.0)
	viper.SetDefault("scanners.cell.signalfloordbm", -110.0)

	viper.SetDefault("survey.session", DefaultSession)
	viper.SetDefault("survey.latitude", 0.000)
	viper.SetDefault("survey.longitude", 0.000)
	viper.SetDefault("survey.spoolpath", "spool/")

	viper.SetDefault("retention.enabled", true)
	viper.SetDefault("retention.maxage", "7d")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "radiowatch.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "radiowatch")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "radiowatch")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "radiowatch/devices")
	viper.SetDefault("mqtt.username", "radiowatch")
	viper.SetDefault("mqtt.password", "secret")

	viper.SetDefault("uplink.enabled", false)
	viper.SetDefault("uplink.endpoint", "")
	viper.SetDefault("uplink.batchsize", 50)
	viper.SetDefault("uplink.timeout", 45)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.listen", "0.0.0.0:8080")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
