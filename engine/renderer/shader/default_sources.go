package shader

// DefaultVertexKey and DefaultFragmentKey name the built-in shaders in logs and build errors.
const (
	DefaultVertexKey   = "default.vert"
	DefaultFragmentKey = "default.frag"
)

// DefaultVertexSource skins (when enabled) and projects vertices, forwarding world position, normal and texcoord.
const DefaultVertexSource = `attribute vec3 position;
attribute vec3 normal;
attribute vec2 texcoord_0;
attribute vec4 joints_0;
attribute vec4 weights_0;

uniform mat4 projection;
uniform mat4 model;
uniform mat4 view;
uniform mat4 normMat;

uniform mat4 invBindMat[128];
uniform bool useSkin;

varying vec3 o_normal;
varying highp vec2 texCoord;
varying vec3 color;
varying vec3 o_pos;

void main(){
    mat4 skinMat =
        weights_0.x * invBindMat[int(joints_0.x)] +
        weights_0.y * invBindMat[int(joints_0.y)] +
        weights_0.z * invBindMat[int(joints_0.z)] +
        weights_0.w * invBindMat[int(joints_0.w)];
    vec4 vert;
    if(useSkin){
        vert = model * skinMat * vec4(position, 1);
        o_normal = vec3(normMat * skinMat * vec4(normal, 0.0));
    }else{
        vert = model * vec4(position, 1);
        o_normal = vec3(normMat * vec4(normal, 0.0));
    }
    gl_Position = projection * view * vert;
    o_pos = vec3(vert) / vert.w;
    texCoord = texcoord_0;
}
`

// DefaultFragmentSource is single point-light Phong shading over the base colour texture tinted by the base colour
// factor, mixed into exponential fog.
const DefaultFragmentSource = `precision mediump float;

varying vec3 o_normal;
varying vec3 o_pos;
varying highp vec2 texCoord;
varying vec3 color;

uniform sampler2D colorTex;
uniform vec4 baseColor;

uniform vec3 cameraPos;

uniform vec4 fogCol;
uniform highp float fogStart;
uniform highp float fogExp;

uniform vec3 lightPos;
uniform vec3 ambientColor;
uniform vec3 diffuseColor;
uniform vec3 specColor;
uniform float shininess;

void main(){
    vec3 lightDir = normalize(lightPos - o_pos);
    vec3 norm = normalize(o_normal);
    vec3 viewDir = normalize(cameraPos - o_pos);
    vec3 light = ambientColor;
    vec4 v = texture2D(colorTex, texCoord) * baseColor;
    float att = dot(lightDir, norm);
    if(att > 0.0){
        float specAngle = max(dot(reflect(-lightDir, norm), viewDir), 0.0);
        float spec = pow(specAngle, shininess);
        light += diffuseColor * att;
        light += specColor * spec;
    }
    vec4 col = vec4(v.rgb * min(light, vec3(1)), v.a);
    gl_FragColor = mix(col, fogCol, clamp(exp((gl_FragCoord.z / gl_FragCoord.w - fogStart) * fogExp), 0.0, 1.0));
}
`

// DefaultVertex returns the built-in vertex shader.
func DefaultVertex() Shader {
	return NewShader(DefaultVertexKey, ShaderTypeVertex, DefaultVertexSource)
}

// DefaultFragment returns the built-in fragment shader.
func DefaultFragment() Shader {
	return NewShader(DefaultFragmentKey, ShaderTypeFragment, DefaultFragmentSource)
}
