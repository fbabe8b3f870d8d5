// Package config provides configuration parsing for the realdom command.
//
// The configuration is stored in realdom.json (or realdom.yaml) next to the
// scene it describes. This package handles loading, saving, defaulting and
// validating it.
//
// # Configuration File Structure
//
//	{
//	  "engine": {
//	    "workers": 4,
//	    "settleCycles": 16
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "realdom"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "realdom"
//	  },
//	  "inspect": {
//	    "addr": "localhost:7070"
//	  },
//	  "scene": "scene.yaml"
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Workers:", cfg.Engine.Workers)
package config
