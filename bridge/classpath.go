package bridge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/bfbridge/errors"
)

const (
	classPathPrefix = "-Djava.class.path="
	cacheDirPrefix  = "-Dbfbridge.cachedir="
	parallelGC      = "-XX:+UseParallelGC"
)

// classPathOption lists dir, dir/* and every entry of dir. A trailing
// wildcard alone is not honored by JNI_CreateJavaVM, hence the listing.
func classPathOption(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.InvalidClassPath(dir, "no classpath supplied", nil)
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.InvalidClassPath(dir,
			"a single classpath folder containing jars was expected", err)
	}

	sep := string(filepath.ListSeparator)
	var b strings.Builder
	b.WriteString(classPathPrefix)
	b.WriteString(dir)
	b.WriteString(sep)
	b.WriteString(dir)
	b.WriteByte('*')
	for _, e := range entries {
		b.WriteString(sep)
		b.WriteString(dir)
		b.WriteString(e.Name())
	}
	return b.String(), nil
}

// vmOptions assembles the option strings passed to the backend.
func vmOptions(opts Options) ([]string, error) {
	cp, err := classPathOption(opts.ClassPath)
	if err != nil {
		return nil, err
	}
	options := []string{cp, parallelGC}
	if opts.CacheDir != "" {
		options = append(options, cacheDirPrefix+opts.CacheDir)
	}
	return append(options, opts.JVMOptions...), nil
}
