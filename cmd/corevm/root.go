/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"corevm/internal/globals"
	"corevm/internal/trace"
)

var (
	flagClasspath   string
	flagJar         string
	flagBootCP      string
	flagBootCPPre   string
	flagBootCPApp   string
	flagDefines     []string
	flagVerboseTags []string
	flagStrictJDK   bool
	flagShowVersion bool
)

var rootCmd = &cobra.Command{
	Use:          "corevm [flags] (class | -jar file.jar) [args...]",
	Short:        "corevm is a Java Virtual Machine core runtime",
	Long:         "corevm loads, links and runs JVM class files: a bytecode interpreter, heap, garbage collector and thread scheduler with no bundled standard library of its own.",
	Version:      versionString,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagShowVersion {
			showVersion()
		}
		g := bootGlobals(args)
		return runMain(g, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagClasspath, "classpath", "", "application classpath, "+string(os.PathListSeparator)+"-separated")
	rootCmd.PersistentFlags().StringVar(&flagClasspath, "cp", "", "alias for --classpath")
	rootCmd.PersistentFlags().StringVar(&flagJar, "jar", "", "run the main class named in this jar's manifest")
	rootCmd.PersistentFlags().StringVar(&flagBootCP, "Xbootclasspath", "", "java.boot.class.path")
	rootCmd.PersistentFlags().StringVar(&flagBootCPPre, "Xbootclasspath-p", "", "java.boot.class.path.prepend")
	rootCmd.PersistentFlags().StringVar(&flagBootCPApp, "Xbootclasspath-a", "", "java.boot.class.path.append")
	rootCmd.PersistentFlags().StringArrayVarP(&flagDefines, "define", "D", nil, "set a system property, key=value")
	rootCmd.PersistentFlags().StringArrayVar(&flagVerboseTags, "verbose", nil, "enable a jc.verbose.<tag> diagnostic category")
	rootCmd.PersistentFlags().BoolVar(&flagStrictJDK, "strict-jdk", false, "reject behavior the JDK itself would reject but this core otherwise tolerates")
	rootCmd.PersistentFlags().BoolVar(&flagShowVersion, "showversion", false, "print version information and continue")
	rootCmd.AddCommand(monitorCmd)
}

// bootGlobals turns the parsed flags and the JVM environment variables
// into a ready globals.Globals, applying getEnvArgs' -D-shaped
// JAVA_TOOL_OPTIONS/_JAVA_OPTIONS/JDK_JAVA_OPTIONS content first so
// explicit -D flags on the command line take precedence, matching a
// real java launcher's layering.
func bootGlobals(args []string) *globals.Globals {
	g := globals.InitGlobals("corevm")
	if env := getEnvArgs(); env != "" {
		parseDProperties(g, extractDFlags(env))
	}
	parseDProperties(g, flagDefines)
	for _, tag := range flagVerboseTags {
		trace.EnableTag(tag)
	}
	g.StrictJDK = flagStrictJDK
	if flagBootCP != "" {
		g.BootClassPath = flagBootCP
	}
	if flagBootCPPre != "" {
		g.BootClassPathPrepend = flagBootCPPre
	}
	if flagBootCPApp != "" {
		g.BootClassPathAppend = flagBootCPApp
	}
	if flagClasspath != "" {
		g.AppClassPath = strings.Split(flagClasspath, string(os.PathListSeparator))
	}
	if flagJar != "" {
		g.StartingJar = flagJar
	} else if len(args) > 0 {
		g.StartingClass = args[0]
	}
	return g
}

// extractDFlags pulls "-Dkey=value" tokens out of a JAVA_TOOL_OPTIONS-
// style space-separated option string; any other token (e.g. -Xmx256m)
// is outside this core's recognized property table and is ignored with
// a trace.Warning rather than silently dropped.
func extractDFlags(env string) []string {
	var defs []string
	for _, tok := range strings.Fields(env) {
		if rest, ok := strings.CutPrefix(tok, "-D"); ok {
			defs = append(defs, rest)
		} else {
			trace.Warning("ignoring unrecognized JVM environment option: " + tok)
		}
	}
	return defs
}

// Execute runs the root command, the binary's single entry point.
func Execute() error {
	return rootCmd.Execute()
}
