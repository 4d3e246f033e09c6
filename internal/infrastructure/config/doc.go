// Package config loads and validates SmartWaste Core configuration.
//
// Values are layered: built-in defaults, then the YAML file, then
// SMARTWASTE_* environment variables. Validate reports every problem
// in one error so operators can fix a broken file in a single pass.
//
// Secrets (MQTT password, InfluxDB token) belong in the environment,
// not in the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
