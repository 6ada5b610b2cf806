// Package config provides configuration loading for chen projects.
//
// The configuration is stored in chen.json at the project root. The file is
// optional: a project without one gets the defaults below. Every key can be
// overridden from the environment with the CHEN_ prefix, for example
// CHEN_PAGES_DIR=app/pages or CHEN_DEV_PORT=4000.
//
// # Configuration File Structure
//
//	{
//	  "pages": {
//	    "dir": "src/pages",
//	    "extensions": [".tsx", ".jsx", ".ts", ".js"]
//	  },
//	  "dev": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "hotReload": true,
//	    "static": ".",
//	    "ignore": ["*.bak"]
//	  },
//	  "build": {
//	    "entry": "src/main.tsx",
//	    "output": "dist",
//	    "minify": true,
//	    "sourceMaps": false,
//	    "external": []
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Pages:", cfg.PagesPath())
package config
