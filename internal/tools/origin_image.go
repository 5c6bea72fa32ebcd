package tools

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
)

type OriginImageArguments struct {
	Action string `zog:"action"`
	Name   string `zog:"name"`
	Path   string `zog:"path"`
}

var originImageArgumentsSchema = z.Struct(z.Shape{
	"action": z.String().Required(),
	"name":   z.String(),
	"path":   z.String().Test(AbsolutePathTest()),
})

type imageInfo struct {
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	Frames   int    `json:"frames"`
	Media    string `json:"media"`
}

var mediaTypeNames = map[origin.MediaType]string{
	origin.MediaSingle:     "single",
	origin.MediaMultiFrame: "multiframe",
	origin.MediaVideo:      "video",
}

func AddOriginImageTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_image",
		mcp.WithDescription("Load, convert and inspect Origin image windows"),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("\"load\" an image file, convert to \"gray\", \"split\" into RGB channels, \"merge\" frames, or \"info\""),
		),
		mcp.WithString("name",
			mcp.Description("Image window name. \"load\" creates a new window if omitted; other actions use the active window"),
		),
		mcp.WithString("path",
			mcp.Description("Absolute path of the image file for \"load\"; wildcards load an image stack"),
		),
	), WithRecovery(env.handleImage))
}

func (e *Env) handleImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginImageArguments{}
	if issues := originImageArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	switch args.Action {
	case "load":
		if args.Path == "" {
			return imcp.NewToolResultInvalidArgumentError("path is required for action load"), nil
		}
	case "gray", "split", "merge", "info":
	default:
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("unknown action: %s", args.Action)), nil
	}

	var im *origin.Image
	var err error
	if args.Action == "load" && args.Name == "" {
		im, err = origin.NewImage(ctx, e.Conn, "")
	} else {
		im, err = origin.FindImage(ctx, e.Conn, args.Name)
	}
	if err != nil {
		return e.result("origin_image", err)
	}
	defer im.Close()

	result := "# Notice\n"
	switch args.Action {
	case "load":
		loaded, err := im.FromFile(args.Path)
		if err != nil {
			return e.result("origin_image", err)
		}
		if !loaded {
			return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("no image loaded from %s", args.Path)), nil
		}
		result += fmt.Sprintf("Loaded %s into %s\n", args.Path, im)
	case "gray":
		err = im.RGBToGray()
		result += fmt.Sprintf("Converted %s to grayscale\n", im)
	case "split":
		err = im.Split()
		result += fmt.Sprintf("Split %s into RGB channels\n", im)
	case "merge":
		err = im.Merge()
		result += fmt.Sprintf("Merged the frames of %s\n", im)
	case "info":
		info, err := describeImage(im)
		if err != nil {
			return e.result("origin_image", err)
		}
		block, err := jsonBlock(info)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText("# Image\n" + block), nil
	}
	if err != nil {
		return e.result("origin_image", err)
	}
	return mcp.NewToolResultText(result), nil
}

func describeImage(im *origin.Image) (imageInfo, error) {
	name, err := im.Name()
	if err != nil {
		return imageInfo{}, err
	}
	w, h, err := im.Size()
	if err != nil {
		return imageInfo{}, err
	}
	channels, err := im.Channels()
	if err != nil {
		return imageInfo{}, err
	}
	frames, err := im.Frames()
	if err != nil {
		return imageInfo{}, err
	}
	media, err := im.MediaType()
	if err != nil {
		return imageInfo{}, err
	}
	mediaName, ok := mediaTypeNames[media]
	if !ok {
		mediaName = "unknown"
	}
	return imageInfo{Name: name, Width: w, Height: h, Channels: channels, Frames: frames, Media: mediaName}, nil
}
