/*
Copyright (C) 2020 Regents of the University of Minnesota.
This file is part of Regrid.

Regrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Regrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Regrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package regridutil

import (
	"fmt"
	"math"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/regrid"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Regrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "GridDesc",
			usage: `
              GridDesc specifies the location of the textual description of
              the target grid: its projection, extent, cell size, and
              vertical levels.`,
			shorthand:  "g",
			defaultVal: "",
			flagsets: []*pflag.FlagSet{pointsCmd.Flags(), swathCmd.Flags(),
				aggregateCmd.Flags(), griddescCmd.Flags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile specifies the location of the observation input.
              The default is standard input.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{pointsCmd.Flags(), swathCmd.Flags(),
				aggregateCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the location for the gridded output.
              The default is standard output.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{pointsCmd.Flags(), swathCmd.Flags(),
				aggregateCmd.Flags(), griddescCmd.Flags()},
		},
		{
			name: "Method",
			usage: `
              Method specifies how observations landing in the same grid
              cell aggregate: 'nearest' keeps the first, 'mean' averages,
              and 'weighted' averages with the input weights (point
              observations) or overlap-area fractions (swath footprints).`,
			shorthand:  "m",
			defaultVal: "mean",
			flagsets:   []*pflag.FlagSet{pointsCmd.Flags(), swathCmd.Flags()},
		},
		{
			name: "MinValid",
			usage: `
              MinValid specifies the minimum valid value. Smaller point
              observations (or smaller aggregated swath cell means) are
              dropped. The default admits everything.`,
			defaultVal: -math.MaxFloat64,
			flagsets:   []*pflag.FlagSet{pointsCmd.Flags(), swathCmd.Flags()},
		},
		{
			name: "Missing",
			usage: `
              Missing specifies the sentinel marking missing values in the
              observation input.`,
			defaultVal: -9999.0,
			flagsets:   []*pflag.FlagSet{pointsCmd.Flags(), swathCmd.Flags()},
		},
		{
			name: "TimestepsPerWindow",
			usage: `
              TimestepsPerWindow specifies how many consecutive input
              timesteps merge into each aggregation window.`,
			defaultVal: 24,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "subset",
			usage: `
              subset restricts the output description to part of the grid,
              given as the 1-based inclusive ranges
              layer1,layer2,row1,row2,col1,col2.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{griddescCmd.Flags()},
		},
		{
			name: "proj4",
			usage: `
              proj4 specifies whether to write the PROJ.4 string equivalent
              to the grid projection instead of the grid description.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{griddescCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("REGRID")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(pointsCmd)
	Root.AddCommand(swathCmd)
	Root.AddCommand(aggregateCmd)
	Root.AddCommand(griddescCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("regrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "regrid",
	Short: "Regrid maps geophysical observations onto model grids.",
	Long: `Regrid aggregates point and swath observations of the atmosphere onto
regular model grids in projected space. Use the subcommands specified below
to access the functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'REGRID_var' where 'var' is the name of the variable to be set. Many
configuration variables are additionally allowed to contain environment
variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Regrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Regrid v%s\n", regrid.Version)
	},
	DisableAutoGenTag: true,
}

// pointsCmd is a command that aggregates point observations onto a grid.
var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Regrid point observations.",
	Long: `points projects point observations onto the grid given by the GridDesc
description and aggregates the observations landing in each grid cell,
writing one record per filled cell in the order the cells were first
reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		method, err := regrid.ParseAggregationMethod(Cfg.GetString("Method"))
		if err != nil {
			return err
		}
		return RegridPoints(
			Cfg.GetString("GridDesc"),
			Cfg.GetString("InputFile"),
			Cfg.GetString("OutputFile"),
			method,
			Cfg.GetFloat64("MinValid"),
			Cfg.GetFloat64("Missing"))
	},
	DisableAutoGenTag: true,
}

// swathCmd is a command that spreads swath footprints over a grid.
var swathCmd = &cobra.Command{
	Use:   "swath",
	Short: "Regrid swath footprints.",
	Long: `swath projects quadrilateral swath footprints onto the grid given by
the GridDesc description and spreads each footprint value over the grid
cells it overlaps in proportion to the overlap area, writing one record per
touched cell in row-major order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		method, err := regrid.ParseAggregationMethod(Cfg.GetString("Method"))
		if err != nil {
			return err
		}
		return RegridSwath(
			Cfg.GetString("GridDesc"),
			Cfg.GetString("InputFile"),
			Cfg.GetString("OutputFile"),
			method,
			Cfg.GetFloat64("MinValid"),
			Cfg.GetFloat64("Missing"))
	},
	DisableAutoGenTag: true,
}

// aggregateCmd is a command that merges gridded timesteps into windows.
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate gridded timesteps into time windows.",
	Long: `aggregate merges consecutive timesteps of gridded records into coarser
time windows, averaging the records that land in the same grid cell. The
input is a sequence of blocks, each a record count line followed by that
many records in the points output format; the output uses the same format,
so it can be aggregated again with a longer window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return AggregateWindows(
			Cfg.GetString("GridDesc"),
			Cfg.GetString("InputFile"),
			Cfg.GetString("OutputFile"),
			Cfg.GetInt("TimestepsPerWindow"))
	},
	DisableAutoGenTag: true,
}

// griddescCmd is a command that validates and normalizes a grid
// description.
var griddescCmd = &cobra.Command{
	Use:   "griddesc",
	Short: "Validate and normalize a grid description.",
	Long: `griddesc reads a grid description, reports the grid geometry, and
writes the description back out in normalized form. The output can be
restricted to part of the grid with --subset, or replaced by the PROJ.4
string equivalent to the grid projection with --proj4.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subset, err := cast.ToIntSliceE(Cfg.Get("subset"))
		if err != nil {
			return fmt.Errorf("regrid: parsing subset ranges: %v", err)
		}
		return DescribeGrid(
			Cfg.GetString("GridDesc"),
			Cfg.GetString("OutputFile"),
			subset,
			Cfg.GetBool("proj4"))
	},
	DisableAutoGenTag: true,
}
