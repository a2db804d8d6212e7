// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	UnsupportedPlatformId
	DownloadFailedId
	InstallFailedId
	VersionPinFailedId
	EnvCreateFailedId
	EnvCreateIncompleteId
	ManifestMissingId
	PackageManagerBootstrapFailedId
	DependencyInstallFailedId
	VerificationFailedId
	ScriptMissingId
	StepFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue page with the given glamour style ("dark",
// "light", "notty" or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	links := append(slices.Clone(i.docLinks), i.extLinks...)
	if len(links) > 0 {
		md += "\n\n## See also:\n"
		for _, link := range links {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	condaDocs = HttpLink("https://docs.anaconda.com/miniconda/")
	venvDocs  = HttpLink("https://docs.python.org/3/library/venv.html")
	pipDocs   = HttpLink("https://pip.pypa.io/en/stable/installation/")

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the expected schema.

## Things you can try:
- Check the file for CUE syntax errors
- Compare it against the defaults:
~~~
$ pxlaunch config show
~~~

- Regenerate a fresh file:
~~~
$ pxlaunch config init --force
~~~`,
	}

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# Platform not supported!

A runtime distribution is only available for:
- macOS on arm64 and x86_64
- Linux on x86_64 and aarch64
- Windows on x86_64 and arm64

## Things you can try:
- Run the launcher on one of the platforms above
- Install Python manually and run the application's main.py directly`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Could not download the runtime installer!

The base runtime installer could not be fetched, or its checksum did not match.

## Things you can try:
- Check your network connection and proxy settings
- Verify ` + "`runtime.artifact_base_url`" + ` points at a reachable mirror
- If ` + "`runtime.artifact_sha256`" + ` is set, make sure it matches the current installer`,
		extLinks: []HttpLink{condaDocs},
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# The runtime installer failed!

The unattended installer exited with an error or left no interpreter behind.

## Things you can try:
- Remove the partially installed runtime directory and retry
- Check that the disk has enough free space (about 500 MB)
- Run the launcher from a directory you can write to`,
		extLinks: []HttpLink{condaDocs},
	}

	versionPinFailedIssue = &Issue{
		id: VersionPinFailedId,
		mdMsg: `
# Could not pin the interpreter version!

The base runtime reports a different version and the package manager failed to
install the pinned one.

## Things you can try:
- Delete the base runtime directory so it is reinstalled from scratch
- Check ` + "`runtime.version`" + ` names a version the distribution offers`,
	}

	envCreateFailedIssue = &Issue{
		id: EnvCreateFailedId,
		mdMsg: `
# Could not create the isolated environment!

~~~
$ python -m venv --copies <env dir>
~~~
exited with an error.

## Things you can try:
- Remove the environment directory and retry
- Make sure the path contains no unusual characters`,
		extLinks: []HttpLink{venvDocs},
	}

	envCreateIncompleteIssue = &Issue{
		id: EnvCreateIncompleteId,
		mdMsg: `
# The isolated environment is incomplete!

Environment creation reported success, but the environment's interpreter is
missing or reports a different version.

## Things you can try:
- Remove the environment directory and retry
- Check antivirus software is not quarantining copied executables`,
		extLinks: []HttpLink{venvDocs},
	}

	manifestMissingIssue = &Issue{
		id: ManifestMissingId,
		mdMsg: `
# Package manifest not found!

The pinned package list (` + "`requirements.txt`" + ` by default) does not exist.

## Things you can try:
- Run the launcher from the application's directory
- Point ` + "`dependencies.manifest`" + ` at the right file`,
	}

	packageManagerBootstrapFailedIssue = &Issue{
		id: PackageManagerBootstrapFailedId,
		mdMsg: `
# Could not bootstrap the package manager!

Neither ` + "`ensurepip`" + ` nor the ` + "`get-pip.py`" + ` fallback produced a working pip.

## Things you can try:
- Check your network connection (the fallback downloads get-pip.py)
- Recreate the environment by deleting its directory`,
		extLinks: []HttpLink{pipDocs},
	}

	dependencyInstallFailedIssue = &Issue{
		id: DependencyInstallFailedId,
		mdMsg: `
# Dependency installation failed!

Installing the pinned manifest failed. The launcher will retry the whole
installation on the next run.

## Things you can try:
- Read the installer output above for the failing package
- Check your network connection and proxy settings
- Make sure the manifest pins versions available for your platform`,
		extLinks: []HttpLink{pipDocs},
	}

	verificationFailedIssue = &Issue{
		id: VerificationFailedId,
		mdMsg: `
# Environment verification failed!

One or more required modules could not be imported. Every failing module is
listed above.

## Things you can try:
- Re-run setup to reinstall the dependencies:
~~~
$ pxlaunch setup
~~~

- On Linux, native GUI modules may need system libraries (e.g. libGL, libxkbcommon)`,
	}

	scriptMissingIssue = &Issue{
		id: ScriptMissingId,
		mdMsg: `
# Pipeline script not found!

A required pipeline step points at a script that does not exist.

## Things you can try:
- Run the launcher from the application's directory
- Check the ` + "`pipeline.steps`" + ` entries in your configuration`,
	}

	stepFailedIssue = &Issue{
		id: StepFailedId,
		mdMsg: `
# A pipeline step failed!

A pipeline script exited with a non-zero status. Its exit code is propagated.

## Things you can try:
- Read the script output above
- Run the step by hand with the environment's interpreter to reproduce it`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Things you can try:
- Check file/directory permissions
- Run the launcher from a directory you own`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():              configLoadFailedIssue,
		unsupportedPlatformIssue.Id():           unsupportedPlatformIssue,
		downloadFailedIssue.Id():                downloadFailedIssue,
		installFailedIssue.Id():                 installFailedIssue,
		versionPinFailedIssue.Id():              versionPinFailedIssue,
		envCreateFailedIssue.Id():               envCreateFailedIssue,
		envCreateIncompleteIssue.Id():           envCreateIncompleteIssue,
		manifestMissingIssue.Id():               manifestMissingIssue,
		packageManagerBootstrapFailedIssue.Id(): packageManagerBootstrapFailedIssue,
		dependencyInstallFailedIssue.Id():       dependencyInstallFailedIssue,
		verificationFailedIssue.Id():            verificationFailedIssue,
		scriptMissingIssue.Id():                 scriptMissingIssue,
		stepFailedIssue.Id():                    stepFailedIssue,
		permissionDeniedIssue.Id():              permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
