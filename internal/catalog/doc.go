// Package catalog holds parameter declaration tables.
//
// AttitudeControl is the built-in multicopter attitude-control table.
// Additional tables can be declared in HCL files and loaded with LoadHCL:
//
//	param "MC_ROLL_P" {
//	  type      = "float"
//	  default   = 6.5
//	  min       = 0
//	  max       = 12
//	  unit      = "1/s"
//	  decimal   = 2
//	  increment = 0.1
//	  group     = "Multicopter Attitude Control"
//	}
//
// Selector parameters list their variants with option blocks:
//
//	param "OMNI_ATT_MODE" {
//	  type    = "int32"
//	  default = 0
//	  min     = 0
//	  max     = 6
//	  option {
//	    value = 0
//	    label = "tilted attitude"
//	  }
//	}
package catalog
