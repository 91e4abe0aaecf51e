// Package describe assembles and renders the info view for one library:
// the on-chain record, the caller's access status, and optionally the
// version list or one version's details. Version content is shown only
// when the access gate grants the read, mirroring what install would do.
package describe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/logrusorgru/aurora"

	"github.com/tacopkm/tpkm/access"
	"github.com/tacopkm/tpkm/contracts/registry"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/licensing"
)

// Registry is the read surface the info view needs.
type Registry interface {
	LibraryInfo(ctx context.Context, name string) (registry.LibraryInfo, error)
	VersionNumbers(ctx context.Context, name string) ([]string, error)
	VersionInfo(ctx context.Context, name, version string) (registry.VersionInfo, error)
	HasAccess(ctx context.Context, name string, user common.Address) (bool, error)
	HasUserLicense(ctx context.Context, name string, user common.Address) (bool, error)
}

// VersionView is the detail block for one published version.
type VersionView struct {
	Version string
	Info    registry.VersionInfo
}

// View is the assembled info for one library.
type View struct {
	Name     string
	Info     registry.LibraryInfo
	Decision access.Decision
	// Versions is filled when the version list was requested.
	Versions []string
	// Version is filled when a specific version was requested.
	Version *VersionView
}

// Build assembles the view. version may be empty; withVersions requests the
// full version list. Version-level details are gated: a denied caller gets
// the library record and their access status, not the content pointers.
func Build(ctx context.Context, reg Registry, name, version string, caller *common.Address, withVersions bool) (*View, error) {
	decision, err := access.Evaluate(ctx, reg, name, caller)
	if err != nil {
		return nil, err
	}
	view := &View{Name: name, Info: decision.Info, Decision: decision}
	if !decision.Granted {
		return view, nil
	}
	if withVersions || version != "" {
		versions, err := reg.VersionNumbers(ctx, name)
		if err != nil {
			return nil, err
		}
		if withVersions {
			view.Versions = versions
		}
		if version != "" {
			found := false
			for _, v := range versions {
				if v == version {
					found = true
					break
				}
			}
			if !found {
				return nil, errutil.Newf(errutil.KindNotFound,
					"library %q has no version %s", name, version)
			}
			info, err := reg.VersionInfo(ctx, name, version)
			if err != nil {
				return nil, err
			}
			view.Version = &VersionView{Version: version, Info: info}
		}
	}
	return view, nil
}

// Render writes the view as the human-readable info block.
func Render(w io.Writer, v *View, colors bool) {
	au := aurora.NewAurora(colors)

	fmt.Fprintf(w, "%s\n", au.Bold(v.Name))
	if v.Info.Description != "" {
		fmt.Fprintf(w, "  %s\n", v.Info.Description)
	}
	fmt.Fprintf(w, "  owner:      %s\n", v.Info.Owner.Hex())
	if v.Info.Language != "" {
		fmt.Fprintf(w, "  language:   %s\n", v.Info.Language)
	}
	if len(v.Info.Tags) > 0 {
		fmt.Fprintf(w, "  tags:       %s\n", strings.Join(v.Info.Tags, ", "))
	}
	visibility := "public"
	if v.Info.IsPrivate {
		visibility = "private"
	}
	fmt.Fprintf(w, "  visibility: %s\n", visibility)
	if v.Info.LicenseRequired {
		fmt.Fprintf(w, "  license:    required, fee %s\n", licensing.FormatWei(v.Info.LicenseFee))
	}
	fmt.Fprintf(w, "  access:     %s\n", v.Decision.Status.Describe())

	if !v.Decision.Granted {
		fmt.Fprintf(w, "\n%s\n", au.BrightRed(v.Decision.DenialReason(v.Name)))
		return
	}

	if len(v.Versions) > 0 {
		fmt.Fprintf(w, "  versions:   %s\n", strings.Join(v.Versions, ", "))
	}
	if v.Version != nil {
		info := v.Version.Info
		fmt.Fprintf(w, "\n%s\n", au.Bold(v.Name+"@"+v.Version.Version))
		if info.Deprecated {
			fmt.Fprintf(w, "  %s\n", au.BrightYellow("DEPRECATED"))
		}
		fmt.Fprintf(w, "  cid:        %s\n", info.IpfsHash)
		fmt.Fprintf(w, "  publisher:  %s\n", info.Publisher.Hex())
		if info.PublishedAt != nil && info.PublishedAt.Sign() > 0 {
			published := time.Unix(info.PublishedAt.Int64(), 0).UTC()
			fmt.Fprintf(w, "  published:  %s\n", published.Format(time.RFC3339))
		}
		if len(info.Dependencies) > 0 {
			fmt.Fprintf(w, "  dependencies:\n")
			for _, dep := range info.Dependencies {
				fmt.Fprintf(w, "    %s %s\n", dep.Name, dep.Constraint)
			}
		}
	}
}
